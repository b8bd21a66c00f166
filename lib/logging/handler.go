// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bureau-foundation/deskboot/lib/inspector"
)

// fanout delivers each record to every child handler that accepts its
// level. Child errors are joined; one failing target does not keep the
// record from the others.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range f.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range f.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(f.handlers))
	for index, handler := range f.handlers {
		children[index] = handler.WithAttrs(attrs)
	}
	return &fanout{handlers: children}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(f.handlers))
	for index, handler := range f.handlers {
		children[index] = handler.WithGroup(name)
	}
	return &fanout{handlers: children}
}

// DisplayHandler adapts an inspector.Display to slog.Handler.
type DisplayHandler struct {
	display  inspector.Display
	level    slog.Leveler
	timezone TimezonePolicy
	prefix   []inspector.Attr
	groups   []string
}

// NewDisplayHandler returns a handler showing records at or above level
// on display, with timestamps converted per timezone.
func NewDisplayHandler(display inspector.Display, level slog.Leveler, timezone TimezonePolicy) *DisplayHandler {
	return &DisplayHandler{display: display, level: level, timezone: timezone}
}

func (h *DisplayHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *DisplayHandler) Handle(_ context.Context, record slog.Record) error {
	converted := inspector.RecordFromSlog(record, h.prefix, h.groups)
	converted.Time = convertTime(converted.Time, h.timezone)
	return h.display.Show(converted)
}

func (h *DisplayHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.prefix = append([]inspector.Attr(nil), h.prefix...)
	for _, attr := range attrs {
		clone.prefix = inspector.FlattenAttr(clone.prefix, h.groups, attr)
	}
	return &clone
}

func (h *DisplayHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// convertTime renders t in the zone the policy selects. Zero times stay
// zero so handlers keep omitting them.
func convertTime(t time.Time, timezone TimezonePolicy) time.Time {
	if t.IsZero() {
		return t
	}
	if timezone == TimezoneUTC {
		return t.UTC()
	}
	return t.In(time.Local)
}

// timezoneReplacer returns a ReplaceAttr hook converting the top-level
// time attribute per timezone.
func timezoneReplacer(timezone TimezonePolicy) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, attr slog.Attr) slog.Attr {
		if len(groups) == 0 && attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.TimeValue(convertTime(attr.Value.Time(), timezone))
		}
		return attr
	}
}
