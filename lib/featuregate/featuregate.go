// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package featuregate decides which auxiliary subsystems a startup
// enables and runs them.
//
// Selection is a pure function of the build mode and platform class,
// both passed in as values so the mapping is testable without
// rebuilding. Running the selected subsystems never fails the startup:
// an auxiliary that cannot initialize is logged and skipped, and the
// application stays usable without it.
package featuregate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/deskboot/lib/autostart"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/inspector"
)

// Subsystem is an auxiliary that the startup may enable.
type Subsystem int

const (
	// InspectorRelay binds the logging facade to a relay that also
	// forwards records to the interactive inspector.
	InspectorRelay Subsystem = iota + 1

	// InspectorSmokeTest opens the inspector and closes it again once,
	// proving it can be attached.
	InspectorSmokeTest

	// Autostart registers (or unregisters) the application to start at
	// login.
	Autostart
)

var allSubsystems = []Subsystem{InspectorRelay, InspectorSmokeTest, Autostart}

func (s Subsystem) String() string {
	switch s {
	case InspectorRelay:
		return "inspector_relay"
	case InspectorSmokeTest:
		return "inspector_smoke_test"
	case Autostart:
		return "autostart"
	default:
		return fmt.Sprintf("subsystem(%d)", int(s))
	}
}

// Selection is the set of subsystems enabled for one startup.
type Selection struct {
	enabled map[Subsystem]bool
}

// Select maps a build mode and platform class to the auxiliaries to
// enable. Debug builds get the inspector relay and its smoke test;
// desktop platforms get autostart registration. The two are independent.
func Select(mode hostprobe.BuildMode, platform hostprobe.PlatformClass) Selection {
	selection := Selection{enabled: make(map[Subsystem]bool)}
	if mode == hostprobe.BuildDebug {
		selection.enabled[InspectorRelay] = true
		selection.enabled[InspectorSmokeTest] = true
	}
	if platform == hostprobe.PlatformDesktop {
		selection.enabled[Autostart] = true
	}
	return selection
}

// Has reports whether subsystem is selected.
func (s Selection) Has(subsystem Subsystem) bool { return s.enabled[subsystem] }

// Subsystems returns the selected subsystems in a fixed order.
func (s Selection) Subsystems() []Subsystem {
	var selected []Subsystem
	for _, subsystem := range allSubsystems {
		if s.enabled[subsystem] {
			selected = append(selected, subsystem)
		}
	}
	return selected
}

// RelayConsole reports whether logging should bind the inspector relay
// rather than the plain sink.
func (s Selection) RelayConsole() bool { return s.Has(InspectorRelay) }

// Auxiliaries carries the collaborators Run needs. Fields for
// subsystems that are not selected may be left zero.
type Auxiliaries struct {
	Inspector inspector.Inspector

	// RelayBound reports whether the logging bind installed the relay.
	// A selected relay that was not bound is reported as failed.
	RelayBound bool

	Autostart        autostart.Registrar
	AutostartEntry   autostart.Entry
	AutostartEnabled bool
}

// Outcome is the result of running one subsystem.
type Outcome struct {
	Subsystem Subsystem
	Err       error
}

// Report lists the outcome of every subsystem Run attempted.
type Report struct {
	Outcomes []Outcome
}

// Succeeded reports whether subsystem ran without error.
func (r Report) Succeeded(subsystem Subsystem) bool {
	for _, outcome := range r.Outcomes {
		if outcome.Subsystem == subsystem {
			return outcome.Err == nil
		}
	}
	return false
}

// Failed returns the outcomes that ended in an error.
func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, outcome := range r.Outcomes {
		if outcome.Err != nil {
			failed = append(failed, outcome)
		}
	}
	return failed
}

var errNotConfigured = errors.New("subsystem selected but not configured")

// Run initializes the selected auxiliaries that run after the logging
// facade is bound: the inspector smoke test and autostart registration.
// InspectorRelay is acted on during the logging bind; its outcome
// comes from Auxiliaries.RelayBound. Failures are logged at warn level
// and otherwise ignored.
func Run(selection Selection, auxiliaries Auxiliaries, logger *slog.Logger) Report {
	var report Report
	for _, subsystem := range selection.Subsystems() {
		var err error
		switch subsystem {
		case InspectorRelay:
			if !auxiliaries.RelayBound {
				err = fmt.Errorf("inspector relay: %w", errNotConfigured)
			}
		case InspectorSmokeTest:
			err = runSmokeTest(auxiliaries)
		case Autostart:
			err = runAutostart(auxiliaries, logger)
		}
		report.Outcomes = append(report.Outcomes, Outcome{Subsystem: subsystem, Err: err})
		if err != nil {
			logger.Warn("auxiliary subsystem failed", "subsystem", subsystem.String(), "error", err)
		}
	}
	return report
}

func runSmokeTest(auxiliaries Auxiliaries) error {
	if auxiliaries.Inspector == nil {
		return fmt.Errorf("inspector: %w", errNotConfigured)
	}
	if err := inspector.SmokeTest(auxiliaries.Inspector); err != nil {
		return fmt.Errorf("inspector smoke test: %w", err)
	}
	return nil
}

func runAutostart(auxiliaries Auxiliaries, logger *slog.Logger) error {
	if auxiliaries.Autostart == nil {
		return fmt.Errorf("autostart: %w", errNotConfigured)
	}
	entry := auxiliaries.AutostartEntry
	if !auxiliaries.AutostartEnabled {
		if err := auxiliaries.Autostart.Unregister(entry); err != nil {
			return fmt.Errorf("autostart unregister: %w", err)
		}
		logger.Debug("autostart disabled", "identifier", entry.Identifier)
		return nil
	}
	if err := auxiliaries.Autostart.Register(entry); err != nil {
		return fmt.Errorf("autostart register: %w", err)
	}
	logger.Debug("autostart registered", "identifier", entry.Identifier, "exec", entry.Exec)
	return nil
}
