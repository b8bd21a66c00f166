// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds deskboot's log sink and owns the process-wide
// logging facade.
//
// Startup goes through two steps with a token in between:
//
//	pending, err := logging.Construct(config, options) // sink built, facade untouched
//	logger, err := pending.BindPlain(logging.Default())  // release: sink is the consumer
//	logger, relay, err := pending.BindRelay(facade, display, level) // debug: relay consumer
//
// [Construct] opens every target of the [SinkConfig] (console display,
// stdout, rotating log file) and fans records out to them, but does not
// install anything. The returned [Pending] token can bind exactly once.
//
// The [Facade] is the single consumer slot behind slog.Default. It moves
// from unbound to bound once per process and never back; a second Bind
// returns [ErrFacadeBound]. That error means the startup sequence ran
// twice, which is a programming error: callers abort rather than retry.
//
// In debug builds the consumer is a [Relay]: every record goes to the
// sink, and records at or above the display level are also shown on an
// interactive inspector display. A failing display never blocks or fails
// delivery to the sink.
package logging
