// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/bureau-foundation/deskboot/lib/config"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

func nvidiaWayland() hostprobe.HostSignals {
	return hostprobe.HostSignals{
		DisplayProtocol: hostprobe.DisplayWayland,
		GPUVendor:       hostprobe.GPUNvidia,
		Virtualization:  hostprobe.VirtNone,
		BuildMode:       hostprobe.BuildRelease,
		Platform:        hostprobe.PlatformDesktop,
		OS:              "linux",
	}
}

func TestProbeReportJSON(t *testing.T) {
	report := buildProbeReport(nvidiaWayland(), workaround.PolicyConditional)

	var output bytes.Buffer
	if err := writeProbeReport(&output, report, "json", false); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(output.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output.String())
	}
	if decoded["gpu_vendor"] != "nvidia" || decoded["policy"] != "conditional" {
		t.Errorf("unexpected report %v", decoded)
	}
	environment, _ := decoded["environment"].(map[string]any)
	if environment["WEBKIT_DISABLE_DMABUF_RENDERER"] != "1" || environment["WEBKIT_DISABLE_COMPOSITING_MODE"] != "1" {
		t.Errorf("environment = %v", environment)
	}
	if subsystems, _ := decoded["subsystems"].([]any); len(subsystems) != 1 || subsystems[0] != "autostart" {
		t.Errorf("subsystems = %v", decoded["subsystems"])
	}
}

func TestProbeReportEmptyListsAreArrays(t *testing.T) {
	signals := hostprobe.HostSignals{GPUVendor: hostprobe.GPUOther, OS: "linux"}
	report := buildProbeReport(signals, workaround.PolicyConditional)

	var output bytes.Buffer
	if err := writeProbeReport(&output, report, "json", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), `"overrides": []`) || !strings.Contains(output.String(), `"subsystems": []`) {
		t.Errorf("empty lists should encode as []:\n%s", output.String())
	}
}

func TestProbeReportText(t *testing.T) {
	report := buildProbeReport(nvidiaWayland(), workaround.PolicyConditional)
	text := renderProbeTable(report, termenv.Ascii)

	for _, fragment := range []string{"SIGNAL", "wayland", "nvidia", "WEBKIT_DISABLE_COMPOSITING_MODE=1", "[autostart]"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("table missing %q:\n%s", fragment, text)
		}
	}
	if strings.Contains(text, "\x1b[") {
		t.Errorf("ascii profile emitted escape sequences:\n%q", text)
	}
}

func TestProbeReportUnknownFormat(t *testing.T) {
	var output bytes.Buffer
	if err := writeProbeReport(&output, probeReport{}, "yaml", false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoadConfigCommandLineOverrides(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")

	cfg, err := loadConfig(runParams{policy: "unconditional"}, hostprobe.BuildRelease, []string{"/opt/notes/bin/notes", "--safe-mode"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Command != "/opt/notes/bin/notes" || len(cfg.Args) != 1 || cfg.Args[0] != "--safe-mode" {
		t.Errorf("command = %q %v", cfg.Command, cfg.Args)
	}
	if policy, _ := cfg.Policy(); policy != workaround.PolicyUnconditional {
		t.Errorf("policy = %s", policy)
	}

	if _, err := loadConfig(runParams{}, hostprobe.BuildRelease, nil); err == nil {
		t.Error("expected error without a command")
	}
	if _, err := loadConfig(runParams{dryRun: true}, hostprobe.BuildRelease, nil); err != nil {
		t.Errorf("dry run without a command: %v", err)
	}
	if _, err := loadConfig(runParams{policy: "sometimes"}, hostprobe.BuildRelease, []string{"/bin/true"}); err == nil {
		t.Error("expected error for an unknown policy")
	}
}

func TestBuildSequencerDebugWithoutSocketUsesStderrRelay(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	cfg, err := loadConfig(runParams{dryRun: true}, hostprobe.BuildDebug, nil)
	if err != nil {
		t.Fatal(err)
	}

	sequencer, cleanup, err := buildSequencer(cfg, hostprobe.BuildDebug, true)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	if sequencer.Inspector.Display == nil || sequencer.Inspector.Inspector == nil {
		t.Error("debug build without a socket should relay to the stderr console")
	}
	if sequencer.SinkOptions.Console != nil {
		t.Error("sink console target should be dropped while the relay renders on stderr")
	}

	release, cleanup, err := buildSequencer(cfg, hostprobe.BuildRelease, true)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if release.Inspector.Display != nil || release.SinkOptions.Console == nil {
		t.Error("release build should log to the console target without a relay")
	}
}
