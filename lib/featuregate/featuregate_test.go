// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package featuregate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bureau-foundation/deskboot/lib/autostart"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/testutil"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		mode     hostprobe.BuildMode
		platform hostprobe.PlatformClass
		want     []Subsystem
	}{
		{hostprobe.BuildDebug, hostprobe.PlatformDesktop, []Subsystem{InspectorRelay, InspectorSmokeTest, Autostart}},
		{hostprobe.BuildDebug, hostprobe.PlatformMobile, []Subsystem{InspectorRelay, InspectorSmokeTest}},
		{hostprobe.BuildRelease, hostprobe.PlatformDesktop, []Subsystem{Autostart}},
		{hostprobe.BuildRelease, hostprobe.PlatformMobile, nil},
		{hostprobe.BuildRelease, hostprobe.PlatformOther, nil},
	}
	for _, test := range tests {
		t.Run(test.mode.String()+"/"+test.platform.String(), func(t *testing.T) {
			selection := Select(test.mode, test.platform)
			if got := fmt.Sprint(selection.Subsystems()); got != fmt.Sprint(test.want) {
				t.Errorf("Subsystems() = %s, want %s", got, fmt.Sprint(test.want))
			}
			if selection.RelayConsole() != (test.mode == hostprobe.BuildDebug) {
				t.Errorf("RelayConsole() = %v", selection.RelayConsole())
			}
		})
	}
}

type fakeInspector struct {
	openErr error
	opened  int
	closed  int
}

func (f *fakeInspector) Open() error {
	f.opened++
	return f.openErr
}

func (f *fakeInspector) Close() error {
	f.closed++
	return nil
}

type fakeRegistrar struct {
	err          error
	registered   []string
	unregistered []string
}

func (f *fakeRegistrar) Register(entry autostart.Entry) error {
	f.registered = append(f.registered, entry.Identifier)
	return f.err
}

func (f *fakeRegistrar) Unregister(entry autostart.Entry) error {
	f.unregistered = append(f.unregistered, entry.Identifier)
	return f.err
}

func (f *fakeRegistrar) Registered(autostart.Entry) (bool, error) {
	return len(f.registered) > 0, f.err
}

func TestRunDebugDesktop(t *testing.T) {
	inspector := &fakeInspector{}
	registrar := &fakeRegistrar{}
	var logs testutil.LogBuffer

	report := Run(Select(hostprobe.BuildDebug, hostprobe.PlatformDesktop), Auxiliaries{
		Inspector:        inspector,
		RelayBound:       true,
		Autostart:        registrar,
		AutostartEntry:   autostart.Entry{Identifier: "dev.example.notes"},
		AutostartEnabled: true,
	}, logs.Logger())

	if inspector.opened != 1 || inspector.closed != 1 {
		t.Errorf("inspector opened %d closed %d times, want once each", inspector.opened, inspector.closed)
	}
	if len(registrar.registered) != 1 || registrar.registered[0] != "dev.example.notes" {
		t.Errorf("registered = %v", registrar.registered)
	}
	for _, subsystem := range []Subsystem{InspectorRelay, InspectorSmokeTest, Autostart} {
		if !report.Succeeded(subsystem) {
			t.Errorf("%s did not succeed", subsystem)
		}
	}
	if failed := report.Failed(); len(failed) != 0 {
		t.Errorf("Failed() = %v", failed)
	}
}

func TestRunDisabledAutostartUnregisters(t *testing.T) {
	registrar := &fakeRegistrar{}
	var logs testutil.LogBuffer

	report := Run(Select(hostprobe.BuildRelease, hostprobe.PlatformDesktop), Auxiliaries{
		Autostart:      registrar,
		AutostartEntry: autostart.Entry{Identifier: "dev.example.notes"},
	}, logs.Logger())

	if len(registrar.registered) != 0 || len(registrar.unregistered) != 1 {
		t.Errorf("registered %v unregistered %v", registrar.registered, registrar.unregistered)
	}
	if !report.Succeeded(Autostart) {
		t.Error("autostart did not succeed")
	}
}

func TestRunFailuresAreLoggedAndSwallowed(t *testing.T) {
	inspector := &fakeInspector{openErr: errors.New("no display")}
	registrar := &fakeRegistrar{err: autostart.ErrUnsupported}
	var logs testutil.LogBuffer

	report := Run(Select(hostprobe.BuildDebug, hostprobe.PlatformDesktop), Auxiliaries{
		Inspector:        inspector,
		RelayBound:       true,
		Autostart:        registrar,
		AutostartEnabled: true,
	}, logs.Logger())

	if inspector.closed != 0 {
		t.Error("inspector closed after a failed open")
	}
	failed := report.Failed()
	if len(failed) != 2 {
		t.Fatalf("Failed() = %v, want smoke test and autostart", failed)
	}
	if !errors.Is(failed[1].Err, autostart.ErrUnsupported) {
		t.Errorf("autostart error = %v", failed[1].Err)
	}
	if !report.Succeeded(InspectorRelay) {
		t.Error("relay outcome should be unaffected")
	}

	warnings := 0
	for _, entry := range logs.Entries(t) {
		if entry["level"] == "WARN" && entry["msg"] == "auxiliary subsystem failed" {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("got %d warnings, want 2", warnings)
	}
}

func TestRunUnconfiguredSubsystem(t *testing.T) {
	var logs testutil.LogBuffer
	report := Run(Select(hostprobe.BuildDebug, hostprobe.PlatformOther), Auxiliaries{}, logs.Logger())
	if report.Succeeded(InspectorSmokeTest) {
		t.Error("smoke test without an inspector should fail")
	}
	if report.Succeeded(InspectorRelay) {
		t.Error("relay that was never bound should not succeed")
	}
	if failed := report.Failed(); len(failed) != 2 || !errors.Is(failed[0].Err, errNotConfigured) {
		t.Errorf("expected relay and smoke test to fail as not configured, got %v", failed)
	}
	if report.Succeeded(Autostart) {
		t.Error("autostart was not selected and has no outcome")
	}
}
