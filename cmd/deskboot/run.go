// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/deskboot/cmd/deskboot/cli"
	"github.com/bureau-foundation/deskboot/lib/autostart"
	"github.com/bureau-foundation/deskboot/lib/clock"
	"github.com/bureau-foundation/deskboot/lib/config"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/inspector"
	"github.com/bureau-foundation/deskboot/lib/logging"
	"github.com/bureau-foundation/deskboot/lib/plugin"
	"github.com/bureau-foundation/deskboot/lib/process"
	"github.com/bureau-foundation/deskboot/lib/startup"
	"github.com/bureau-foundation/deskboot/lib/surface"
)

type runParams struct {
	configPath string
	buildMode  string
	policy     string
	dryRun     bool
}

func runCommand() *cli.Command {
	var params runParams
	return &cli.Command{
		Name:    "run",
		Summary: "Start the application",
		Description: `Run the startup sequence and launch the GUI surface.

The command and its arguments come from the configuration file, or from
everything after "--" on the command line. The launcher exits with the
surface's exit status.`,
		Usage: "deskboot run [flags] [-- command args...]",
		Examples: []cli.Example{
			{Description: "Launch with a config file", Command: "deskboot run --config ~/.config/notes/deskboot.yaml"},
			{Description: "Show what would be launched", Command: "deskboot run --dry-run -- /opt/notes/bin/notes"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVar(&params.configPath, "config", "", "config file (default $"+config.EnvironmentVariable+", else built-in defaults)")
			flagSet.StringVar(&params.buildMode, "build-mode", "", "override the compiled build mode (debug or release)")
			flagSet.StringVar(&params.policy, "policy", "", "workaround policy (conditional or unconditional)")
			flagSet.BoolVar(&params.dryRun, "dry-run", false, "run the startup sequence but do not start the surface")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			return launch(ctx, params, args)
		},
	}
}

func resolveBuildMode(flag string) (hostprobe.BuildMode, error) {
	if flag == "" {
		return hostprobe.CompiledBuildMode(), nil
	}
	return hostprobe.ParseBuildMode(flag)
}

// loadConfig applies the command-line overrides to the loaded file and
// validates the result.
func loadConfig(params runParams, mode hostprobe.BuildMode, args []string) (*config.Config, error) {
	cfg, err := config.Load(params.configPath, mode)
	if err != nil {
		return nil, err
	}
	if params.policy != "" {
		cfg.WorkaroundPolicy = params.policy
	}
	if len(args) > 0 {
		cfg.Command, cfg.Args = args[0], args[1:]
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Command == "" && !params.dryRun {
		return nil, errors.New("no command to launch: set command in the config file or pass it after --")
	}
	return cfg, nil
}

func launch(ctx context.Context, params runParams, args []string) error {
	mode, err := resolveBuildMode(params.buildMode)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(params, mode, args)
	if err != nil {
		return err
	}

	sequencer, cleanup, err := buildSequencer(cfg, mode, params.dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := sequencer.Run(ctx)
	if result != nil {
		defer result.Sink.Close()
	}
	return err
}

// buildSequencer wires the configuration into a Sequencer. The returned
// cleanup releases the inspector connection.
func buildSequencer(cfg *config.Config, mode hostprobe.BuildMode, dryRun bool) (*startup.Sequencer, func(), error) {
	policy, _ := cfg.Policy()
	sinkConfig, _ := cfg.SinkConfig()
	inspectorLevel, _ := cfg.InspectorLevel()

	console := inspector.NewConsole(os.Stderr)
	options := logging.SinkOptions{
		Console: console,
		OnRotateError: func(err error) {
			process.Report(os.Stderr, fmt.Errorf("log rotation: %w", err))
		},
	}
	cleanup := func() {}

	var inspectorConfig startup.InspectorConfig
	if mode == hostprobe.BuildDebug {
		inspectorConfig.Level = inspectorLevel
		if cfg.Inspector.Socket != "" {
			client := inspector.NewClient(cfg.Inspector.Socket, clock.Real())
			inspectorConfig.Display = client
			inspectorConfig.Inspector = client
			cleanup = func() { client.Close() }
		} else {
			// The relay renders on stderr itself; the sink's console
			// target would print every record a second time.
			inspectorConfig.Display = console
			inspectorConfig.Inspector = console
			options.Console = nil
		}
	}

	// A missing registrar is reported by the feature gate, not here:
	// autostart failures never stop the launch.
	registrar, _ := autostart.Default()
	executable, _ := os.Executable()

	registry := plugin.NewRegistry()
	for _, builtin := range []plugin.Plugin{plugin.LogPlugin(), plugin.HostPlugin()} {
		if err := registry.Register(builtin); err != nil {
			return nil, nil, err
		}
	}

	var surfaceRuntime startup.Runtime = &surface.Exec{
		Command:    cfg.Command,
		Args:       cfg.Args,
		Identifier: cfg.Identifier,
	}
	if dryRun {
		surfaceRuntime = &surface.Headless{Command: cfg.Command, Args: cfg.Args, Identifier: cfg.Identifier}
	}

	sequencer := &startup.Sequencer{
		BuildMode:        mode,
		Policy:           policy,
		SinkConfig:       sinkConfig,
		SinkOptions:      options,
		Inspector:        inspectorConfig,
		Autostart:        registrar,
		AutostartEntry:   cfg.AutostartEntry(executable),
		AutostartEnabled: cfg.Autostart.Enabled,
		Identifier:       cfg.Identifier,
		Plugins:          registry,
		Runtime:          surfaceRuntime,
	}
	return sequencer, cleanup, nil
}
