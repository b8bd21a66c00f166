// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package surface hands control from the startup sequence to the GUI.
//
// [Exec] starts the real GUI binary as a child process and waits for
// it. [Headless] does everything except start the process, for dry
// runs. Both initialize the plugin registry first so the plugins'
// child environment reaches the GUI.
package surface

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/bureau-foundation/deskboot/lib/plugin"
	"github.com/bureau-foundation/deskboot/lib/startup"
)

// DefaultGracePeriod is how long a cancelled surface gets to exit after
// SIGTERM before it is killed.
const DefaultGracePeriod = 5 * time.Second

// Exec launches the GUI binary.
type Exec struct {
	Command    string
	Args       []string
	Dir        string
	Identifier string

	// Stdin, Stdout and Stderr default to the launcher's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Environ returns the base environment. Defaults to os.Environ,
	// which on Linux already carries the applied overrides.
	Environ func() []string

	// GracePeriod defaults to DefaultGracePeriod.
	GracePeriod time.Duration
}

// Launch initializes the plugins, starts the surface and waits for it
// to exit. Cancelling ctx sends SIGTERM and, after the grace period,
// kills the process. A non-zero exit is returned as an error wrapping
// *exec.ExitError.
func (e *Exec) Launch(ctx context.Context, sealed startup.EnvironmentSealed, startupContext startup.StartupContext, plugins *plugin.Registry, logger *slog.Logger) error {
	if err := sealed.Check(); err != nil {
		return err
	}
	if e.Command == "" {
		return errors.New("no surface command configured")
	}

	childEnv, err := initPlugins(startupContext, e.Identifier, plugins, logger)
	if err != nil {
		return err
	}
	environ := e.Environ
	if environ == nil {
		environ = os.Environ
	}

	command := exec.CommandContext(ctx, e.Command, e.Args...)
	command.Dir = e.Dir
	command.Env = mergeEnvironment(environ(), childEnv, rendererLayer(startupContext))
	command.Stdin, command.Stdout, command.Stderr = os.Stdin, os.Stdout, os.Stderr
	if e.Stdin != nil {
		command.Stdin = e.Stdin
	}
	if e.Stdout != nil {
		command.Stdout = e.Stdout
	}
	if e.Stderr != nil {
		command.Stderr = e.Stderr
	}
	command.Cancel = func() error {
		return command.Process.Signal(syscall.SIGTERM)
	}
	command.WaitDelay = e.GracePeriod
	if command.WaitDelay <= 0 {
		command.WaitDelay = DefaultGracePeriod
	}

	if err := command.Start(); err != nil {
		return fmt.Errorf("starting surface %s: %w", e.Command, err)
	}
	logger.Info("surface started", "command", e.Command, "pid", command.Process.Pid)

	err = command.Wait()
	if err != nil {
		logger.Warn("surface exited", "command", e.Command, "error", err)
		return fmt.Errorf("surface %s: %w", e.Command, err)
	}
	logger.Info("surface exited", "command", e.Command)
	return nil
}

// Headless logs the launch it would perform without starting anything.
type Headless struct {
	Command    string
	Args       []string
	Identifier string
}

func (h *Headless) Launch(_ context.Context, sealed startup.EnvironmentSealed, startupContext startup.StartupContext, plugins *plugin.Registry, logger *slog.Logger) error {
	if err := sealed.Check(); err != nil {
		return err
	}
	childEnv, err := initPlugins(startupContext, h.Identifier, plugins, logger)
	if err != nil {
		return err
	}
	added := mergeEnvironment(nil, childEnv, rendererLayer(startupContext))
	logger.Info("dry run: surface not started",
		"command", h.Command,
		"args", strings.Join(h.Args, " "),
		"environment", strings.Join(added, " "),
	)
	return nil
}

func initPlugins(startupContext startup.StartupContext, identifier string, plugins *plugin.Registry, logger *slog.Logger) (map[string]string, error) {
	handle := plugin.NewHandle(logger, identifier, plugin.Startup{
		Signals:   startupContext.Signals,
		Overrides: startupContext.Overrides,
		LogFile:   startupContext.LogFile,
	})
	if plugins != nil {
		if err := plugins.InitAll(handle); err != nil {
			return nil, err
		}
	}
	return handle.ChildEnv(), nil
}

// rendererLayer returns the renderer flags the GUI process inherits.
// Only Linux hosts export them, matching what the sequencer writes to
// the launcher's own environment.
func rendererLayer(startupContext startup.StartupContext) map[string]string {
	if startupContext.Signals.OS != "linux" {
		return nil
	}
	return startupContext.RendererFlags()
}

// mergeEnvironment returns base with every layer's variables set, later
// layers winning. Renderer flags go last so no plugin can undo an
// override. Added variables are appended in sorted order.
func mergeEnvironment(base []string, layers ...map[string]string) []string {
	merged := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(merged, layer)
	}

	result := make([]string, 0, len(base)+len(merged))
	for _, entry := range base {
		key, _, _ := strings.Cut(entry, "=")
		if _, replaced := merged[key]; replaced {
			continue
		}
		result = append(result, entry)
	}
	for _, key := range slices.Sorted(maps.Keys(merged)) {
		result = append(result, key+"="+merged[key])
	}
	return result
}

var (
	_ startup.Runtime = (*Exec)(nil)
	_ startup.Runtime = (*Headless)(nil)
)
