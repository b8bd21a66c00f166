// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package surface

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/logging"
	"github.com/bureau-foundation/deskboot/lib/plugin"
	"github.com/bureau-foundation/deskboot/lib/startup"
	"github.com/bureau-foundation/deskboot/lib/testutil"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

type fixedProber hostprobe.HostSignals

func (p fixedProber) Probe(mode hostprobe.BuildMode) hostprobe.HostSignals {
	signals := hostprobe.HostSignals(p)
	signals.BuildMode = mode
	return signals
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
}

// runSequence launches runtime through a full startup sequence on an
// Nvidia/Wayland Linux host, the way the binary does.
func runSequence(t *testing.T, ctx context.Context, runtime startup.Runtime, logs *bytes.Buffer) error {
	t.Helper()
	return runSequenceOn(t, ctx, "linux", workaround.PolicyConditional, runtime, logs)
}

func runSequenceOn(t *testing.T, ctx context.Context, goos string, policy workaround.Policy, runtime startup.Runtime, logs *bytes.Buffer) error {
	t.Helper()
	config := logging.DefaultSinkConfig(t.TempDir())
	config.Targets = []logging.Target{logging.TargetStdout, logging.TargetLogDirectory}

	registry := plugin.NewRegistry()
	registry.Register(plugin.HostPlugin())
	registry.Register(plugin.LogPlugin())

	sequencer := &startup.Sequencer{
		Prober: fixedProber{
			DisplayProtocol: hostprobe.DisplayWayland,
			GPUVendor:       hostprobe.GPUNvidia,
			OS:              goos,
		},
		Policy:      policy,
		Environment: workaround.MapEnvironment{},
		SinkConfig:  config,
		SinkOptions: logging.SinkOptions{Stdout: logs},
		Facade:      logging.NewFacade(nil),
		Identifier:  "dev.example.notes",
		Plugins:     registry,
		Runtime:     runtime,
	}
	result, err := sequencer.Run(ctx)
	if result != nil {
		result.Sink.Close()
	}
	return err
}

func TestExecPassesEnvironmentToSurface(t *testing.T) {
	requireShell(t)
	output := filepath.Join(t.TempDir(), "env")

	runtime := &Exec{
		Command: "/bin/sh",
		Args: []string{"-c", `printf '%s|%s|%s|%s' "$WEBKIT_DISABLE_COMPOSITING_MODE" "$WEBKIT_DISABLE_DMABUF_RENDERER" "$DESKBOOT_GPU_VENDOR" "$BASE" > "$1"`,
			"sh", output},
		Identifier: "dev.example.notes",
		Environ:    func() []string { return []string{"BASE=kept", "WEBKIT_DISABLE_COMPOSITING_MODE=0"} },
	}
	var logs bytes.Buffer
	if err := runSequence(t, context.Background(), runtime, &logs); err != nil {
		t.Fatalf("Run: %v\n%s", err, logs.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "1|1|nvidia|kept"; got != want {
		t.Errorf("surface environment = %q, want %q", got, want)
	}
	if !strings.Contains(logs.String(), "surface started") {
		t.Errorf("launch not logged: %s", logs.String())
	}
}

func TestExecWithholdsRendererFlagsOffLinux(t *testing.T) {
	requireShell(t)
	output := filepath.Join(t.TempDir(), "env")

	runtime := &Exec{
		Command: "/bin/sh",
		Args: []string{"-c", `printf '%s|%s|%s' "$WEBKIT_DISABLE_COMPOSITING_MODE" "$WEBKIT_DISABLE_DMABUF_RENDERER" "$DESKBOOT_GPU_VENDOR" > "$1"`,
			"sh", output},
		Identifier: "dev.example.notes",
		Environ:    func() []string { return nil },
	}
	var logs bytes.Buffer
	if err := runSequenceOn(t, context.Background(), "darwin", workaround.PolicyUnconditional, runtime, &logs); err != nil {
		t.Fatalf("Run: %v\n%s", err, logs.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "||nvidia"; got != want {
		t.Errorf("surface environment = %q, want %q", got, want)
	}
}

func TestHeadlessWithholdsRendererFlagsOffLinux(t *testing.T) {
	var logs bytes.Buffer
	runtime := &Headless{Command: "/opt/notes/bin/notes", Identifier: "dev.example.notes"}
	if err := runSequenceOn(t, context.Background(), "darwin", workaround.PolicyUnconditional, runtime, &logs); err != nil {
		t.Fatal(err)
	}
	output := logs.String()
	if !strings.Contains(output, "dry run: surface not started") {
		t.Fatalf("dry run not logged:\n%s", output)
	}
	for _, variable := range []string{"WEBKIT_DISABLE_DMABUF_RENDERER=", "WEBKIT_DISABLE_COMPOSITING_MODE="} {
		if strings.Contains(output, variable) {
			t.Errorf("non-Linux launch exported %s:\n%s", variable, output)
		}
	}
}

func TestExecPropagatesExitStatus(t *testing.T) {
	requireShell(t)
	runtime := &Exec{Command: "/bin/sh", Args: []string{"-c", "exit 3"}, Environ: os.Environ}

	var logs bytes.Buffer
	err := runSequence(t, context.Background(), runtime, &logs)
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Fatalf("Run: %v, want exit status 3", err)
	}
	var fatal *startup.FatalError
	if errors.As(err, &fatal) {
		t.Error("surface exit reported as a fatal startup error")
	}
}

func TestExecCancellationStopsSurface(t *testing.T) {
	requireShell(t)
	runtime := &Exec{
		Command:     "/bin/sh",
		Args:        []string{"-c", "sleep 30"},
		GracePeriod: time.Second,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	started := time.Now()
	var logs bytes.Buffer
	if err := runSequence(t, ctx, runtime, &logs); err == nil {
		t.Fatal("cancelled surface reported success")
	}
	if elapsed := time.Since(started); elapsed > 10*time.Second {
		t.Errorf("surface outlived cancellation by %v", elapsed)
	}
}

func TestExecRequiresSealedEnvironment(t *testing.T) {
	var logs testutil.LogBuffer
	runtime := &Exec{Command: "/bin/true"}
	err := runtime.Launch(context.Background(), startup.EnvironmentSealed{}, startup.StartupContext{}, nil, logs.Logger())
	if !errors.Is(err, startup.ErrNotSealed) {
		t.Fatalf("Launch with zero token: %v, want ErrNotSealed", err)
	}

	headless := &Headless{Command: "/bin/true"}
	err = headless.Launch(context.Background(), startup.EnvironmentSealed{}, startup.StartupContext{}, nil, logs.Logger())
	if !errors.Is(err, startup.ErrNotSealed) {
		t.Fatalf("Headless with zero token: %v, want ErrNotSealed", err)
	}
}

func TestHeadlessLogsLaunch(t *testing.T) {
	var logs bytes.Buffer
	runtime := &Headless{Command: "/opt/notes/bin/notes", Args: []string{"--minimized"}, Identifier: "dev.example.notes"}
	if err := runSequence(t, context.Background(), runtime, &logs); err != nil {
		t.Fatal(err)
	}
	output := logs.String()
	for _, fragment := range []string{
		"dry run: surface not started",
		"/opt/notes/bin/notes",
		"WEBKIT_DISABLE_DMABUF_RENDERER=1",
		"DESKBOOT_LOG_FILE=",
	} {
		if !strings.Contains(output, fragment) {
			t.Errorf("dry-run log missing %q:\n%s", fragment, output)
		}
	}
}

func TestPluginFailureStopsLaunch(t *testing.T) {
	registry := plugin.NewRegistry()
	registry.Register(plugin.Func{PluginName: "broken", InitFunc: func(*plugin.Handle) error {
		return errors.New("init failed")
	}})
	var logs testutil.LogBuffer
	_, err := initPlugins(startup.StartupContext{}, "dev.example.notes", registry, logs.Logger())
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("initPlugins: %v", err)
	}
}

func TestMergeEnvironment(t *testing.T) {
	got := mergeEnvironment(
		[]string{"PATH=/bin", "A=base", "B=base"},
		map[string]string{"A": "plugin", "C": "plugin"},
		map[string]string{"A": "renderer"},
	)
	want := "PATH=/bin,B=base,A=renderer,C=plugin"
	if strings.Join(got, ",") != want {
		t.Errorf("mergeEnvironment() = %v, want %s", got, want)
	}
}
