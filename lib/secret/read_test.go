// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadKeyFile(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare key",
			content: "AGE-SECRET-KEY-1EXAMPLE",
			want:    "AGE-SECRET-KEY-1EXAMPLE",
		},
		{
			name:    "trailing newline",
			content: "AGE-SECRET-KEY-1EXAMPLE\n",
			want:    "AGE-SECRET-KEY-1EXAMPLE",
		},
		{
			name:    "age-keygen layout",
			content: "# created: 2026-08-29T10:00:00Z\n# public key: age1example\nAGE-SECRET-KEY-1EXAMPLE\n",
			want:    "AGE-SECRET-KEY-1EXAMPLE",
		},
		{
			name:    "blank lines before key",
			content: "\n\n  AGE-SECRET-KEY-1EXAMPLE  \n",
			want:    "AGE-SECRET-KEY-1EXAMPLE",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(tempDir, test.name)
			if err := os.WriteFile(path, []byte(test.content), 0o600); err != nil {
				t.Fatalf("writing test file: %v", err)
			}

			key, err := ReadKeyFile(path)
			if err != nil {
				t.Fatalf("ReadKeyFile: %v", err)
			}
			defer key.Close()
			if key.String() != test.want {
				t.Errorf("ReadKeyFile = %q, want %q", key.String(), test.want)
			}
		})
	}
}

func TestReadKeyFileNotFound(t *testing.T) {
	_, err := ReadKeyFile("/nonexistent/path/to/key")
	if err == nil {
		t.Error("ReadKeyFile with a nonexistent file should return an error")
	}
}

func TestReadKeyFileCommentsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments")
	if err := os.WriteFile(path, []byte("# created: yesterday\n\n# public key: age1example\n"), 0o600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	_, err := ReadKeyFile(path)
	if err == nil {
		t.Error("ReadKeyFile with a comment-only file should return an error")
	}
}

func TestReadKeyFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	_, err := ReadKeyFile(path)
	if err == nil {
		t.Error("ReadKeyFile with an empty file should return an error")
	}
}
