// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

type codedError int

func (e codedError) Error() string { return fmt.Sprintf("code %d", int(e)) }
func (e codedError) ExitCode() int { return int(e) }

func TestExitCode(t *testing.T) {
	if code := ExitCode(nil); code != 0 {
		t.Errorf("ExitCode(nil) = %d", code)
	}
	if code := ExitCode(errors.New("boom")); code != 1 {
		t.Errorf("ExitCode(plain) = %d", code)
	}
	if code := ExitCode(fmt.Errorf("wrapped: %w", codedError(2))); code != 2 {
		t.Errorf("ExitCode(coded) = %d", code)
	}
}

func TestExitCodeFromChildProcess(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	err := exec.Command("/bin/sh", "-c", "exit 7").Run()
	if code := ExitCode(fmt.Errorf("surface: %w", err)); code != 7 {
		t.Errorf("ExitCode = %d, expected 7", code)
	}
}

func TestReport(t *testing.T) {
	var buffer bytes.Buffer
	Report(&buffer, errors.New("logging facade already bound"))
	if got := buffer.String(); got != "error: logging facade already bound\n" {
		t.Errorf("Report wrote %q", got)
	}
}
