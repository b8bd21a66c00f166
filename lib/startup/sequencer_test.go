// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package startup

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/deskboot/lib/autostart"
	"github.com/bureau-foundation/deskboot/lib/featuregate"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/inspector"
	"github.com/bureau-foundation/deskboot/lib/logging"
	"github.com/bureau-foundation/deskboot/lib/plugin"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

// fixedProber returns the same signals on every probe, with the build
// mode it is asked for.
type fixedProber hostprobe.HostSignals

func (p fixedProber) Probe(mode hostprobe.BuildMode) hostprobe.HostSignals {
	signals := hostprobe.HostSignals(p)
	signals.BuildMode = mode
	return signals
}

// fakeInspector is both the relay display and the smoke-tested
// inspector.
type fakeInspector struct {
	mu      sync.Mutex
	records []inspector.Record
	opened  int
	closed  int
}

func (f *fakeInspector) Show(record inspector.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeInspector) Open() error {
	f.opened++
	return nil
}

func (f *fakeInspector) Close() error {
	f.closed++
	return nil
}

type fakeRegistrar struct{ registered int }

func (f *fakeRegistrar) Register(autostart.Entry) error {
	f.registered++
	return nil
}

func (f *fakeRegistrar) Unregister(autostart.Entry) error         { return nil }
func (f *fakeRegistrar) Registered(autostart.Entry) (bool, error) { return f.registered > 0, nil }

type fakeRuntime struct {
	launched  int
	sealedErr error
	startup   StartupContext
	err       error
}

func (f *fakeRuntime) Launch(_ context.Context, sealed EnvironmentSealed, startup StartupContext, _ *plugin.Registry, logger *slog.Logger) error {
	f.launched++
	f.sealedErr = sealed.Check()
	f.startup = startup
	logger.Info("surface launched")
	return f.err
}

type harness struct {
	sequencer *Sequencer
	env       workaround.MapEnvironment
	stdout    *bytes.Buffer
	inspector *fakeInspector
	registrar *fakeRegistrar
	runtime   *fakeRuntime

	// envAtConstruct is the environment as logging construction saw it.
	envAtConstruct map[string]string
}

func newHarness(t *testing.T, signals hostprobe.HostSignals, mode hostprobe.BuildMode, facade *logging.Facade) *harness {
	t.Helper()
	h := &harness{
		env:       workaround.MapEnvironment{},
		stdout:    &bytes.Buffer{},
		inspector: &fakeInspector{},
		registrar: &fakeRegistrar{},
		runtime:   &fakeRuntime{},
	}
	config := logging.DefaultSinkConfig(t.TempDir())
	config.Targets = []logging.Target{logging.TargetStdout}
	config.Timezone = logging.TimezoneUTC

	h.sequencer = &Sequencer{
		Prober:      fixedProber(signals),
		BuildMode:   mode,
		Policy:      workaround.PolicyConditional,
		Environment: h.env,
		SinkConfig:  config,
		SinkOptions: logging.SinkOptions{Stdout: h.stdout},
		Facade:      facade,
		Inspector: InspectorConfig{
			Display:   h.inspector,
			Inspector: h.inspector,
			Level:     slog.LevelInfo,
		},
		Autostart:        h.registrar,
		AutostartEntry:   autostart.Entry{Name: "Notes", Identifier: "dev.example.notes", Exec: "/opt/notes/bin/notes"},
		AutostartEnabled: true,
		Identifier:       "dev.example.notes",
		Runtime:          h.runtime,
	}
	h.sequencer.construct = func(config logging.SinkConfig, options logging.SinkOptions) (*logging.Pending, error) {
		h.envAtConstruct = make(map[string]string)
		for key, value := range h.env {
			h.envAtConstruct[key] = value
		}
		return logging.Construct(config, options)
	}
	return h
}

const (
	dmabufVariable      = "WEBKIT_DISABLE_DMABUF_RENDERER"
	compositingVariable = "WEBKIT_DISABLE_COMPOSITING_MODE"
)

func TestNvidiaWaylandReleaseScenario(t *testing.T) {
	signals := hostprobe.HostSignals{
		DisplayProtocol: hostprobe.DisplayWayland,
		GPUVendor:       hostprobe.GPUNvidia,
		Virtualization:  hostprobe.VirtNone,
		Platform:        hostprobe.PlatformDesktop,
		OS:              "linux",
	}
	h := newHarness(t, signals, hostprobe.BuildRelease, logging.NewFacade(nil))

	result, err := h.sequencer.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Sink.Close()

	want := workaround.NewSet(workaround.DisableDmabufRenderer, workaround.DisableCompositing)
	if !result.Context.Overrides.Equal(want) {
		t.Errorf("overrides = %s, want %s", result.Context.Overrides, want)
	}

	// The overrides were in the environment before logging started.
	for _, variable := range []string{dmabufVariable, compositingVariable} {
		if h.envAtConstruct[variable] != "1" {
			t.Errorf("%s = %q when logging construction began, want \"1\"", variable, h.envAtConstruct[variable])
		}
	}

	if result.Relay != nil {
		t.Error("release build bound the relay")
	}
	if h.inspector.opened != 0 || len(h.inspector.records) != 0 {
		t.Errorf("inspector touched in release: opened %d, %d records", h.inspector.opened, len(h.inspector.records))
	}
	if h.registrar.registered != 1 || !result.Features.Succeeded(featuregate.Autostart) {
		t.Errorf("autostart registered %d times", h.registrar.registered)
	}

	if h.runtime.launched != 1 || h.runtime.sealedErr != nil {
		t.Fatalf("runtime launched %d times, seal error %v", h.runtime.launched, h.runtime.sealedErr)
	}
	flags := h.runtime.startup.RendererFlags()
	if flags[dmabufVariable] != "1" || flags[compositingVariable] != "1" {
		t.Errorf("renderer flags = %v", flags)
	}
	if !strings.Contains(h.stdout.String(), `"msg":"surface launched"`) {
		t.Errorf("sink did not receive runtime logs: %q", h.stdout.String())
	}
}

func TestOtherX11VirtualBoxDebugScenario(t *testing.T) {
	signals := hostprobe.HostSignals{
		DisplayProtocol: hostprobe.DisplayX11,
		GPUVendor:       hostprobe.GPUOther,
		Virtualization:  hostprobe.VirtVirtualBox,
		Platform:        hostprobe.PlatformDesktop,
		OS:              "linux",
	}
	h := newHarness(t, signals, hostprobe.BuildDebug, logging.NewFacade(nil))

	result, err := h.sequencer.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer result.Sink.Close()

	if result.Context.Overrides.Len() != 0 {
		t.Errorf("overrides = %s, want {}", result.Context.Overrides)
	}
	if len(h.env) != 0 {
		t.Errorf("environment written: %v", h.env)
	}

	if result.Relay == nil {
		t.Fatal("debug build did not bind the relay")
	}
	if h.inspector.opened != 1 || h.inspector.closed != 1 {
		t.Errorf("smoke test opened %d closed %d", h.inspector.opened, h.inspector.closed)
	}

	// Console forwarding: the display and the sink both saw the
	// sequence's own records.
	var shown []string
	for _, record := range h.inspector.records {
		shown = append(shown, record.Message)
	}
	if !strings.Contains(strings.Join(shown, "|"), "host probed") {
		t.Errorf("display records = %v", shown)
	}
	if !strings.Contains(h.stdout.String(), "host probed") {
		t.Errorf("sink output = %q", h.stdout.String())
	}
}

func TestVMwareWaylandNeedsDmabufOverride(t *testing.T) {
	signals := hostprobe.HostSignals{
		DisplayProtocol: hostprobe.DisplayWayland,
		GPUVendor:       hostprobe.GPUOther,
		Virtualization:  hostprobe.MatchHypervisor("VMware Virtual Platform"),
		OS:              "linux",
	}
	h := newHarness(t, signals, hostprobe.BuildRelease, logging.NewFacade(nil))
	result, err := h.sequencer.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer result.Sink.Close()

	if !result.Context.Overrides.Has(workaround.DisableDmabufRenderer) || h.env[dmabufVariable] != "1" {
		t.Errorf("overrides %s, env %v", result.Context.Overrides, h.env)
	}
}

func TestNonLinuxLeavesEnvironmentAlone(t *testing.T) {
	signals := hostprobe.HostSignals{
		GPUVendor: hostprobe.GPUNvidia,
		Platform:  hostprobe.PlatformDesktop,
		OS:        "darwin",
	}
	h := newHarness(t, signals, hostprobe.BuildRelease, logging.NewFacade(nil))
	result, err := h.sequencer.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer result.Sink.Close()

	if len(h.env) != 0 || len(result.Context.Applied) != 0 {
		t.Errorf("environment written on darwin: %v", h.env)
	}
	if !result.Context.Overrides.Has(workaround.DisableCompositing) {
		t.Error("overrides should still be computed and carried in the context")
	}
	if h.runtime.sealedErr != nil {
		t.Errorf("token invalid on darwin: %v", h.runtime.sealedErr)
	}
}

func TestSecondRunIsFatal(t *testing.T) {
	h := newHarness(t, hostprobe.HostSignals{OS: "linux"}, hostprobe.BuildRelease, logging.NewFacade(nil))
	result, err := h.sequencer.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer result.Sink.Close()

	_, err = h.sequencer.Run(context.Background())
	var fatal *FatalError
	if !errors.As(err, &fatal) || !errors.Is(err, ErrAlreadyRan) {
		t.Fatalf("second Run: %v, want FatalError wrapping ErrAlreadyRan", err)
	}
	if h.runtime.launched != 1 {
		t.Errorf("runtime launched %d times", h.runtime.launched)
	}
}

func TestSecondFacadeBindAbortsBeforeLaunch(t *testing.T) {
	facade := logging.NewFacade(nil)

	first := newHarness(t, hostprobe.HostSignals{OS: "linux"}, hostprobe.BuildRelease, facade)
	result, err := first.sequencer.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer result.Sink.Close()

	second := newHarness(t, hostprobe.HostSignals{OS: "linux"}, hostprobe.BuildRelease, facade)
	_, err = second.sequencer.Run(context.Background())
	var fatal *FatalError
	if !errors.As(err, &fatal) || !errors.Is(err, logging.ErrFacadeBound) {
		t.Fatalf("Run with a bound facade: %v, want FatalError wrapping ErrFacadeBound", err)
	}
	if fatal.Step != "logging bind" {
		t.Errorf("Step = %q", fatal.Step)
	}
	if second.runtime.launched != 0 || second.registrar.registered != 0 {
		t.Error("sequence continued past a fatal logging error")
	}
}

func TestInvalidSinkConfigIsFatal(t *testing.T) {
	h := newHarness(t, hostprobe.HostSignals{OS: "linux"}, hostprobe.BuildRelease, logging.NewFacade(nil))
	h.sequencer.SinkConfig.MaxFileSize = 0

	_, err := h.sequencer.Run(context.Background())
	var fatal *FatalError
	if !errors.As(err, &fatal) || fatal.Step != "logging construction" {
		t.Fatalf("Run: %v, want logging construction FatalError", err)
	}
	if h.runtime.launched != 0 {
		t.Error("runtime launched after a fatal error")
	}
}

func TestRuntimeErrorIsNotFatal(t *testing.T) {
	h := newHarness(t, hostprobe.HostSignals{OS: "linux"}, hostprobe.BuildRelease, logging.NewFacade(nil))
	h.runtime.err = errors.New("surface exited with status 3")

	result, err := h.sequencer.Run(context.Background())
	if err == nil || result == nil {
		t.Fatalf("Run = %v, %v; want result and runtime error", result, err)
	}
	defer result.Sink.Close()
	var fatal *FatalError
	if errors.As(err, &fatal) {
		t.Error("runtime error reported as fatal")
	}
}

func TestDebugWithoutDisplayFallsBackToSink(t *testing.T) {
	h := newHarness(t, hostprobe.HostSignals{OS: "linux"}, hostprobe.BuildDebug, logging.NewFacade(nil))
	h.sequencer.Inspector = InspectorConfig{}

	result, err := h.sequencer.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer result.Sink.Close()
	if result.Relay != nil {
		t.Error("relay bound without a display")
	}
	if !strings.Contains(h.stdout.String(), "no display configured") {
		t.Errorf("missing fallback warning: %q", h.stdout.String())
	}
	if result.Features.Succeeded(featuregate.InspectorSmokeTest) {
		t.Error("smoke test succeeded without an inspector")
	}
	if result.Features.Succeeded(featuregate.InspectorRelay) {
		t.Error("relay reported as succeeded although it was never bound")
	}
}

func TestZeroTokenIsNotSealed(t *testing.T) {
	if err := (EnvironmentSealed{}).Check(); !errors.Is(err, ErrNotSealed) {
		t.Errorf("zero token Check() = %v, want ErrNotSealed", err)
	}
}

func TestApplyOverridesTwiceIsIdempotent(t *testing.T) {
	env := workaround.MapEnvironment{}
	startup := StartupContext{
		Signals:   hostprobe.HostSignals{OS: "linux"},
		Overrides: workaround.NewSet(workaround.DisableDmabufRenderer),
	}
	if _, err := applyOverrides(env, &startup); err != nil {
		t.Fatal(err)
	}
	first := len(startup.Applied)
	if _, err := applyOverrides(env, &startup); err != nil {
		t.Fatal(err)
	}
	if first != 1 || len(startup.Applied) != 0 || len(env) != 1 {
		t.Errorf("first wrote %d, second wrote %d, env %v", first, len(startup.Applied), env)
	}
}
