// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Fatal writes "error: err" to stderr and exits with ExitCode(err).
// Use it in main() for errors from run() where the structured logger
// may not be initialized.
func Fatal(err error) {
	Report(os.Stderr, err)
	os.Exit(ExitCode(err))
}

// Report writes the one-line diagnostic Fatal prints.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}

// exitCoder is implemented by errors that carry their own exit status.
type exitCoder interface {
	ExitCode() int
}

// ExitCode returns the exit status for err: 0 for nil, the child's
// status for an exited child process (or any error with an ExitCode
// method), and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
		return 1
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
