// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin registers capability plugins and initializes them once
// the startup sequence has handed off.
//
// A plugin exposes only a name and Init. Plugins run in registration
// order; the first failing Init stops the rest. Plugins talk to the GUI
// process through the [Handle]: values set with SetChildEnv become
// environment variables of the launched surface.
package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

// ErrDuplicate is returned when a plugin name is registered twice.
var ErrDuplicate = errors.New("plugin already registered")

// Plugin is a capability module initialized at startup.
type Plugin interface {
	Name() string
	Init(handle *Handle) error
}

// Func adapts a function to the Plugin interface.
type Func struct {
	PluginName string
	InitFunc   func(*Handle) error
}

func (f Func) Name() string              { return f.PluginName }
func (f Func) Init(handle *Handle) error { return f.InitFunc(handle) }

// Registry holds plugins in registration order.
type Registry struct {
	plugins []Plugin
	names   map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register appends plugin. Names must be non-empty and unique.
func (r *Registry) Register(plugin Plugin) error {
	name := plugin.Name()
	if name == "" {
		return errors.New("plugin name is empty")
	}
	if r.names[name] {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.names[name] = true
	r.plugins = append(r.plugins, plugin)
	return nil
}

// Names returns the registered plugin names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.plugins))
	for index, plugin := range r.plugins {
		names[index] = plugin.Name()
	}
	return names
}

// InitAll initializes every plugin in registration order with a view of
// handle whose logger carries the plugin name. It stops at the first
// failure.
func (r *Registry) InitAll(handle *Handle) error {
	for _, plugin := range r.plugins {
		if err := plugin.Init(handle.forPlugin(plugin.Name())); err != nil {
			return fmt.Errorf("initializing plugin %s: %w", plugin.Name(), err)
		}
		handle.Logger.Debug("plugin initialized", "plugin", plugin.Name())
	}
	return nil
}

// Startup is the read-only view of the startup sequence's results that
// plugins receive.
type Startup struct {
	Signals   hostprobe.HostSignals
	Overrides workaround.Set

	// LogFile is the path of the current log file, "" when logging has
	// no file target.
	LogFile string
}

// Handle is what a plugin's Init receives.
type Handle struct {
	Logger     *slog.Logger
	Identifier string
	Startup    Startup

	childEnv map[string]string
}

// NewHandle returns a handle with an empty child environment.
func NewHandle(logger *slog.Logger, identifier string, startup Startup) *Handle {
	return &Handle{
		Logger:     logger,
		Identifier: identifier,
		Startup:    startup,
		childEnv:   make(map[string]string),
	}
}

// forPlugin returns a copy of the handle sharing its child environment.
func (h *Handle) forPlugin(name string) *Handle {
	clone := *h
	clone.Logger = h.Logger.With("plugin", name)
	return &clone
}

// SetChildEnv sets an environment variable for the launched GUI
// process. A later call for the same key replaces the value.
func (h *Handle) SetChildEnv(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\x00") {
		return fmt.Errorf("invalid environment variable name %q", key)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("environment variable %s contains a NUL byte", key)
	}
	h.childEnv[key] = value
	return nil
}

// ChildEnv returns a copy of the child environment set so far.
func (h *Handle) ChildEnv() map[string]string {
	return maps.Clone(h.childEnv)
}
