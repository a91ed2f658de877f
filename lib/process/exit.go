// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
)

// Validation is an error for bad invocation or configuration input.
// It carries an optional hint shown to the user beneath the error and
// exits with code 2 to distinguish usage mistakes from runtime
// failures.
type Validation struct {
	Message string
	Hint    string
}

// NewValidation creates a validation error.
func NewValidation(format string, args ...any) *Validation {
	return &Validation{Message: fmt.Sprintf(format, args...)}
}

// WithHint attaches a usage hint and returns the error for chaining.
func (v *Validation) WithHint(format string, args ...any) *Validation {
	v.Hint = fmt.Sprintf(format, args...)
	return v
}

func (v *Validation) Error() string { return v.Message }

// ExitCode returns 2, the conventional usage-error exit status.
func (v *Validation) ExitCode() int { return 2 }

// Fatal writes "error: err" to stderr and exits. This is the standard
// Gantry binary entrypoint error handler; use it in main() for errors
// from run() where the structured logger may not be initialized.
//
// Errors implementing ExitCode() int choose their own exit status;
// everything else exits 1. A wrapped Validation error additionally
// prints its hint.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)

	var validation *Validation
	if errors.As(err, &validation) && validation.Hint != "" {
		fmt.Fprintf(os.Stderr, "hint: %s\n", validation.Hint)
	}

	code := 1
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		code = coder.ExitCode()
	}
	os.Exit(code)
}
