// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Relay is the debug-build consumer. Every record the sink accepts is
// delivered to the sink first; records the display handler accepts are
// then shown on the inspector display. Display failures are counted and
// otherwise ignored.
type Relay struct {
	sink    slog.Handler
	display slog.Handler
	dropped *atomic.Int64
}

// NewRelay returns a relay forwarding to sink and display.
func NewRelay(sink, display slog.Handler) *Relay {
	return &Relay{sink: sink, display: display, dropped: new(atomic.Int64)}
}

// Dropped returns how many records the display failed to show.
func (r *Relay) Dropped() int64 { return r.dropped.Load() }

func (r *Relay) Enabled(ctx context.Context, level slog.Level) bool {
	return r.sink.Enabled(ctx, level) || r.display.Enabled(ctx, level)
}

func (r *Relay) Handle(ctx context.Context, record slog.Record) error {
	var err error
	if r.sink.Enabled(ctx, record.Level) {
		err = r.sink.Handle(ctx, record.Clone())
	}
	if r.display.Enabled(ctx, record.Level) {
		if displayErr := r.display.Handle(ctx, record); displayErr != nil {
			r.dropped.Add(1)
		}
	}
	return err
}

func (r *Relay) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Relay{sink: r.sink.WithAttrs(attrs), display: r.display.WithAttrs(attrs), dropped: r.dropped}
}

func (r *Relay) WithGroup(name string) slog.Handler {
	return &Relay{sink: r.sink.WithGroup(name), display: r.display.WithGroup(name), dropped: r.dropped}
}
