// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package startup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bureau-foundation/deskboot/lib/autostart"
	"github.com/bureau-foundation/deskboot/lib/featuregate"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/inspector"
	"github.com/bureau-foundation/deskboot/lib/logging"
	"github.com/bureau-foundation/deskboot/lib/plugin"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

// ErrAlreadyRan is returned when a Sequencer runs a second time.
var ErrAlreadyRan = errors.New("startup sequence already ran")

// FatalError aborts startup before any GUI surface exists. The caller
// reports it and exits.
type FatalError struct {
	Step string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Prober produces the host signals. *hostprobe.Prober implements it.
type Prober interface {
	Probe(mode hostprobe.BuildMode) hostprobe.HostSignals
}

// Runtime creates the GUI surface and initializes the plugins. Launch
// must call sealed.Check before creating anything.
type Runtime interface {
	Launch(ctx context.Context, sealed EnvironmentSealed, startup StartupContext, plugins *plugin.Registry, logger *slog.Logger) error
}

// InspectorConfig is what a debug build attaches the inspector through.
type InspectorConfig struct {
	// Display receives relayed records.
	Display inspector.Display

	// Inspector is opened and closed once by the smoke test. Often the
	// same value as Display.
	Inspector inspector.Inspector

	// Level is the minimum level relayed to Display.
	Level slog.Level
}

// Sequencer holds everything one startup needs. Zero-valued optional
// fields get defaults in Run.
type Sequencer struct {
	// Prober defaults to hostprobe.NewProber().
	Prober Prober

	// BuildMode is the mode passed to the probe. It selects the
	// auxiliaries together with the probed platform class.
	BuildMode hostprobe.BuildMode

	Policy workaround.Policy

	// Environment defaults to the process environment.
	Environment workaround.Environment

	SinkConfig  logging.SinkConfig
	SinkOptions logging.SinkOptions

	// Facade defaults to logging.Default().
	Facade *logging.Facade

	Inspector InspectorConfig

	Autostart        autostart.Registrar
	AutostartEntry   autostart.Entry
	AutostartEnabled bool

	Identifier string
	Plugins    *plugin.Registry
	Runtime    Runtime

	// construct builds the log sink. Tests replace it to observe the
	// environment at the moment logging starts.
	construct func(logging.SinkConfig, logging.SinkOptions) (*logging.Pending, error)

	ran atomic.Bool
}

// Result is what a completed (or launched-and-failed) sequence
// produced.
type Result struct {
	Context   StartupContext
	Logger    *slog.Logger
	Sink      *logging.Sink
	Relay     *logging.Relay
	Selection featuregate.Selection
	Features  featuregate.Report
}

// Run executes the startup sequence. It must be called once, from the
// goroutine that starts the process, before any other goroutine reads
// the environment. A *FatalError means the sequence stopped before the
// GUI hand-off and no Result exists. Any other error came from the
// runtime after hand-off and is returned with the Result. The caller
// owns Result.Sink.
func (s *Sequencer) Run(ctx context.Context) (*Result, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, &FatalError{Step: "sequence", Err: ErrAlreadyRan}
	}
	s.applyDefaults()

	// 1-2: probe and compute. Neither can fail.
	signals := s.Prober.Probe(s.BuildMode)
	startup := StartupContext{
		Signals:   signals,
		Policy:    s.Policy,
		Overrides: workaround.Compute(s.Policy, signals),
	}

	// 3: the only environment write.
	sealed, err := applyOverrides(s.Environment, &startup)
	if err != nil {
		return nil, &FatalError{Step: "renderer overrides", Err: err}
	}

	// 4: logging.
	selection := featuregate.Select(signals.BuildMode, signals.Platform)
	result := &Result{Context: startup, Selection: selection}
	if err := s.bindLogging(selection, result); err != nil {
		return nil, err
	}
	startup.LogFile = result.Sink.LogFile()
	result.Context = startup

	logger := result.Logger
	logger.Info("host probed", signals.Attrs()...)
	logger.Info("renderer overrides",
		"policy", startup.Policy.String(),
		"overrides", startup.Overrides.String(),
		"written", len(startup.Applied),
	)

	// 5: auxiliaries.
	result.Features = featuregate.Run(selection, featuregate.Auxiliaries{
		Inspector:        s.Inspector.Inspector,
		RelayBound:       result.Relay != nil,
		Autostart:        s.Autostart,
		AutostartEntry:   s.AutostartEntry,
		AutostartEnabled: s.AutostartEnabled,
	}, logger)

	// 6: hand-off.
	if s.Runtime == nil {
		return result, nil
	}
	if err := s.Runtime.Launch(ctx, sealed, startup, s.Plugins, logger); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Sequencer) applyDefaults() {
	if s.Prober == nil {
		s.Prober = hostprobe.NewProber()
	}
	if s.Environment == nil {
		s.Environment = workaround.ProcessEnvironment{}
	}
	if s.Facade == nil {
		s.Facade = logging.Default()
	}
	if s.Plugins == nil {
		s.Plugins = plugin.NewRegistry()
	}
	if s.construct == nil {
		s.construct = logging.Construct
	}
}

// bindLogging constructs the sink and claims the facade: the relay in
// debug builds, the sink itself otherwise.
func (s *Sequencer) bindLogging(selection featuregate.Selection, result *Result) error {
	pending, err := s.construct(s.SinkConfig, s.SinkOptions)
	if err != nil {
		return &FatalError{Step: "logging construction", Err: err}
	}
	result.Sink = pending.Sink()

	relay := selection.RelayConsole() && s.Inspector.Display != nil
	if relay {
		result.Logger, result.Relay, err = pending.BindRelay(s.Facade, s.Inspector.Display, s.Inspector.Level)
	} else {
		result.Logger, err = pending.BindPlain(s.Facade)
	}
	if err != nil {
		result.Sink.Close()
		return &FatalError{Step: "logging bind", Err: err}
	}

	if selection.RelayConsole() && !relay {
		result.Logger.Warn("inspector relay selected but no display configured; logging to the sink only")
	}
	return nil
}
