// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
)

// ReadKeyFile reads a key from a file in age's key-file layout: blank
// lines and '#' comment lines (the "# created:" header age-keygen and
// gantry-agent keygen both write) are skipped, and the first remaining
// line, trimmed of surrounding whitespace, is the key. The key lands
// in a protected Buffer; the heap copy of the file contents is zeroed
// before returning.
//
// The caller must Close the returned buffer.
func ReadKeyFile(path string) (*Buffer, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer Zero(contents)

	for _, line := range bytes.Split(contents, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		return NewFromBytes(trimmed)
	}
	return nil, fmt.Errorf("no key found in %s", path)
}
