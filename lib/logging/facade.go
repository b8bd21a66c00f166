// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"errors"
	"log/slog"
	"sync/atomic"
)

var (
	// ErrFacadeBound is returned when a consumer is bound to a facade
	// that already has one. It signals a sequencing bug.
	ErrFacadeBound = errors.New("logging facade already bound")

	// ErrTokenConsumed is returned when a Pending sink is bound a second
	// time.
	ErrTokenConsumed = errors.New("pending log sink already bound")
)

// Facade is the single slot through which all log records are emitted.
// It starts unbound; the first Bind installs a consumer and every later
// Bind fails with ErrFacadeBound.
type Facade struct {
	bound   atomic.Bool
	install func(*slog.Logger)
}

var processFacade = NewFacade(slog.SetDefault)

// Default returns the process facade, whose consumer becomes
// slog.Default.
func Default() *Facade { return processFacade }

// NewFacade returns an unbound facade that calls install with the
// logger built around the consumer. Tests pass a recorder; Default
// passes slog.SetDefault.
func NewFacade(install func(*slog.Logger)) *Facade {
	return &Facade{install: install}
}

// Bind claims the facade for consumer.
func (f *Facade) Bind(consumer slog.Handler) (*slog.Logger, error) {
	if !f.bound.CompareAndSwap(false, true) {
		return nil, ErrFacadeBound
	}
	logger := slog.New(consumer)
	if f.install != nil {
		f.install(logger)
	}
	return logger, nil
}

// Bound reports whether a consumer has been bound.
func (f *Facade) Bound() bool { return f.bound.Load() }
