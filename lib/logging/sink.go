// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/bureau-foundation/deskboot/lib/clock"
	"github.com/bureau-foundation/deskboot/lib/inspector"
)

// SinkOptions supplies the runtime collaborators a SinkConfig does not
// describe.
type SinkOptions struct {
	// Console is the display behind TargetConsole. When nil the
	// console target is skipped: nothing is attached to render on.
	Console inspector.Display

	// Stdout receives the TargetStdout records. Defaults to os.Stdout.
	// A terminal gets slog's text format, anything else JSON lines.
	Stdout io.Writer

	// Clock names rotated log files. Defaults to clock.Real().
	Clock clock.Clock

	// OnRotateError is told about rotation problems that do not stop
	// logging, such as a failed compression of a rotated file.
	OnRotateError func(error)
}

// Sink is a constructed log sink: the dispatcher over every configured
// target and the resources behind it.
type Sink struct {
	dispatcher slog.Handler
	level      slog.Level
	file       *rotatingFile
}

// Dispatcher returns the handler fanning records out to every target.
func (s *Sink) Dispatcher() slog.Handler { return s.dispatcher }

// MaxLevel returns the most verbose level the sink accepts.
func (s *Sink) MaxLevel() slog.Level { return s.level }

// LogFile returns the path of the current log file, or "" without a
// LogDirectory target.
func (s *Sink) LogFile() string {
	if s.file == nil {
		return ""
	}
	return s.file.path()
}

// Close releases the log file.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Pending is a constructed sink waiting for its consumer to be bound.
// It binds at most once.
type Pending struct {
	sink     *Sink
	timezone TimezonePolicy
	consumed atomic.Bool
}

// Construct validates config and builds the sink without touching any
// facade.
func Construct(config SinkConfig, options SinkOptions) (*Pending, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid log sink config: %w", err)
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}

	handlerOptions := &slog.HandlerOptions{
		Level:       config.Level,
		ReplaceAttr: timezoneReplacer(config.Timezone),
	}

	sink := &Sink{level: config.Level}
	var handlers []slog.Handler
	for _, target := range config.Targets {
		switch target {
		case TargetConsole:
			if options.Console != nil {
				handlers = append(handlers, NewDisplayHandler(options.Console, config.Level, config.Timezone))
			}
		case TargetStdout:
			if isTerminal(options.Stdout) {
				handlers = append(handlers, slog.NewTextHandler(options.Stdout, handlerOptions))
			} else {
				handlers = append(handlers, slog.NewJSONHandler(options.Stdout, handlerOptions))
			}
		case TargetLogDirectory:
			file, err := openRotatingFile(config, options.Clock, options.OnRotateError)
			if err != nil {
				return nil, err
			}
			sink.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, handlerOptions))
		}
	}
	sink.dispatcher = &fanout{handlers: handlers}

	return &Pending{sink: sink, timezone: config.Timezone}, nil
}

// Dispatcher, MaxLevel and Sink expose the constructed sink before it
// is bound.
func (p *Pending) Dispatcher() slog.Handler { return p.sink.dispatcher }
func (p *Pending) MaxLevel() slog.Level     { return p.sink.level }
func (p *Pending) Sink() *Sink              { return p.sink }

// BindPlain binds the sink itself as the facade's consumer.
func (p *Pending) BindPlain(facade *Facade) (*slog.Logger, error) {
	if !p.consumed.CompareAndSwap(false, true) {
		return nil, ErrTokenConsumed
	}
	return facade.Bind(p.sink.dispatcher)
}

// BindRelay builds a Relay forwarding to the sink and to display, and
// binds it as the facade's consumer. displayLevel filters what reaches
// the display; the sink keeps its own level.
func (p *Pending) BindRelay(facade *Facade, display inspector.Display, displayLevel slog.Level) (*slog.Logger, *Relay, error) {
	if !p.consumed.CompareAndSwap(false, true) {
		return nil, nil, ErrTokenConsumed
	}
	relay := NewRelay(p.sink.dispatcher, NewDisplayHandler(display, displayLevel, p.timezone))
	logger, err := facade.Bind(relay)
	if err != nil {
		return nil, nil, err
	}
	return logger, relay, nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
