// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package startup

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

// StartupContext carries the probe results and the override set through
// the sequence and into the GUI runtime, which reads the renderer flags
// from here rather than from the process environment.
type StartupContext struct {
	Signals   hostprobe.HostSignals
	Policy    workaround.Policy
	Overrides workaround.Set

	// Applied lists the variables step 3 actually wrote. Empty on
	// platforms where the process environment is left alone.
	Applied []workaround.Change

	// LogFile is the current log file once logging is bound, "" without
	// a file target.
	LogFile string
}

// RendererFlags returns the overrides as environment variables for the
// GUI process.
func (c StartupContext) RendererFlags() map[string]string {
	return workaround.RendererFlags(c.Overrides)
}

// ErrNotSealed is returned by a Runtime given a token that did not come
// from the startup sequence.
var ErrNotSealed = errors.New("renderer environment not sealed: overrides must be applied before GUI creation")

// EnvironmentSealed proves that the renderer overrides were applied.
// Only the sequence can produce a valid one; the zero value is invalid.
type EnvironmentSealed struct {
	seal *seal
}

type seal struct {
	applied int
}

// Check returns ErrNotSealed unless the token came from applyOverrides.
func (s EnvironmentSealed) Check() error {
	if s.seal == nil {
		return ErrNotSealed
	}
	return nil
}

// applyOverrides is the only place that writes renderer overrides to
// the process environment. On non-Linux hosts it writes nothing; the
// flags stay available through StartupContext.RendererFlags.
func applyOverrides(env workaround.Environment, context *StartupContext) (EnvironmentSealed, error) {
	if context.Signals.OS == "linux" {
		changes, err := workaround.Apply(env, context.Overrides)
		if err != nil {
			return EnvironmentSealed{}, fmt.Errorf("applying renderer overrides: %w", err)
		}
		context.Applied = changes
	}
	return EnvironmentSealed{seal: &seal{applied: len(context.Applied)}}, nil
}
