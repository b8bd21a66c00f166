// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/deskboot/lib/autostart"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/logging"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "DESKBOOT_CONFIG"

// Config is the launcher configuration.
type Config struct {
	// Identifier is the reverse-DNS application identifier. It names
	// the autostart entry and the default log directory.
	Identifier string `yaml:"identifier" json:"identifier"`

	// ProductName is the human-readable application name.
	ProductName string `yaml:"product_name" json:"product_name"`

	// Command and Args start the GUI surface.
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args" json:"args"`

	// WorkaroundPolicy is "conditional" or "unconditional".
	WorkaroundPolicy string `yaml:"workaround_policy" json:"workaround_policy"`

	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Autostart AutostartConfig `yaml:"autostart" json:"autostart"`
	Inspector InspectorConfig `yaml:"inspector" json:"inspector"`

	// Per-build-mode overrides, applied after loading.
	Debug   *Overrides `yaml:"debug,omitempty" json:"debug,omitempty"`
	Release *Overrides `yaml:"release,omitempty" json:"release,omitempty"`
}

// LoggingConfig is the file form of logging.SinkConfig.
type LoggingConfig struct {
	// Targets lists console, stdout and/or log_directory.
	Targets []string `yaml:"targets" json:"targets"`

	// Directory defaults to a per-platform location under the user's
	// home, see DefaultLogDirectory.
	Directory string `yaml:"directory" json:"directory"`

	FileName    string `yaml:"file_name" json:"file_name"`
	MaxFileSize int64  `yaml:"max_file_size" json:"max_file_size"`
	Rotation    string `yaml:"rotation" json:"rotation"`
	Timezone    string `yaml:"timezone" json:"timezone"`
	Level       string `yaml:"level" json:"level"`
	Compression string `yaml:"compression" json:"compression"`
}

// AutostartConfig controls login registration on desktop platforms.
type AutostartConfig struct {
	// Enabled registers the application; false removes any existing
	// registration.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Args are passed to the launcher when started at login.
	Args []string `yaml:"args" json:"args"`
}

// InspectorConfig configures the debug-build inspector relay.
type InspectorConfig struct {
	// Socket is where deskboot-inspector listens. Empty renders relayed
	// records on the launcher's own stderr instead.
	Socket string `yaml:"socket" json:"socket"`

	// Level is the minimum level relayed to the inspector.
	Level string `yaml:"level" json:"level"`
}

// Overrides holds the fields a debug: or release: section may change.
// Empty strings and nil sections leave the base value alone.
type Overrides struct {
	Command          string           `yaml:"command,omitempty" json:"command,omitempty"`
	WorkaroundPolicy string           `yaml:"workaround_policy,omitempty" json:"workaround_policy,omitempty"`
	Logging          *LoggingConfig   `yaml:"logging,omitempty" json:"logging,omitempty"`
	Autostart        *AutostartConfig `yaml:"autostart,omitempty" json:"autostart,omitempty"`
	Inspector        *InspectorConfig `yaml:"inspector,omitempty" json:"inspector,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Identifier:       "dev.deskboot.app",
		ProductName:      "deskboot",
		WorkaroundPolicy: workaround.PolicyConditional.String(),
		Logging: LoggingConfig{
			Targets:     []string{"console", "stdout", "log_directory"},
			FileName:    "logs",
			MaxFileSize: logging.DefaultMaxFileSize,
			Rotation:    logging.KeepAll.String(),
			Timezone:    logging.TimezoneLocal.String(),
			Level:       "info",
			Compression: logging.CompressionNone.String(),
		},
		Inspector: InspectorConfig{
			Level: "debug",
		},
	}
}

// Load loads the configuration for mode. path is the --config flag
// value; when empty, DESKBOOT_CONFIG is consulted, and when that is
// empty too the defaults are returned.
func Load(path string, mode hostprobe.BuildMode) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.applyBuildModeOverrides(mode)
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path, mode)
}

// LoadFile loads path over the defaults, applies the section for mode
// and expands variables.
func LoadFile(path string, mode hostprobe.BuildMode) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.applyBuildModeOverrides(mode)
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		return decoder.Decode(c)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}

func (c *Config) applyBuildModeOverrides(mode hostprobe.BuildMode) {
	overrides := c.Release
	if mode == hostprobe.BuildDebug {
		overrides = c.Debug
	}
	if overrides == nil {
		return
	}

	if overrides.Command != "" {
		c.Command = overrides.Command
	}
	if overrides.WorkaroundPolicy != "" {
		c.WorkaroundPolicy = overrides.WorkaroundPolicy
	}

	if section := overrides.Logging; section != nil {
		if len(section.Targets) > 0 {
			c.Logging.Targets = section.Targets
		}
		if section.Directory != "" {
			c.Logging.Directory = section.Directory
		}
		if section.FileName != "" {
			c.Logging.FileName = section.FileName
		}
		if section.MaxFileSize != 0 {
			c.Logging.MaxFileSize = section.MaxFileSize
		}
		if section.Rotation != "" {
			c.Logging.Rotation = section.Rotation
		}
		if section.Timezone != "" {
			c.Logging.Timezone = section.Timezone
		}
		if section.Level != "" {
			c.Logging.Level = section.Level
		}
		if section.Compression != "" {
			c.Logging.Compression = section.Compression
		}
	}

	if section := overrides.Autostart; section != nil {
		// Enabled is a bool, so a present section always sets it.
		c.Autostart.Enabled = section.Enabled
		if len(section.Args) > 0 {
			c.Autostart.Args = section.Args
		}
	}

	if section := overrides.Inspector; section != nil {
		if section.Socket != "" {
			c.Inspector.Socket = section.Socket
		}
		if section.Level != "" {
			c.Inspector.Level = section.Level
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":                os.Getenv("HOME"),
		"DESKBOOT_IDENTIFIER": c.Identifier,
	}
	c.Command = expandVars(c.Command, vars)
	c.Logging.Directory = expandVars(c.Logging.Directory, vars)
	c.Inspector.Socket = expandVars(c.Inspector.Socket, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Provided vars first, then the environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// DefaultLogDirectory is where logs go when logging.directory is
// unset: ~/Library/Logs/<identifier> on macOS, and
// $XDG_STATE_HOME/<identifier>/logs (default ~/.local/state) elsewhere.
func DefaultLogDirectory(identifier, goos string) (string, error) {
	if goos != "darwin" {
		if stateHome := os.Getenv("XDG_STATE_HOME"); filepath.IsAbs(stateHome) {
			return filepath.Join(stateHome, identifier, "logs"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory for logs: %w", err)
	}
	if goos == "darwin" {
		return filepath.Join(home, "Library", "Logs", identifier), nil
	}
	return filepath.Join(home, ".local", "state", identifier, "logs"), nil
}

// Policy returns the parsed workaround policy.
func (c *Config) Policy() (workaround.Policy, error) {
	return workaround.ParsePolicy(c.WorkaroundPolicy)
}

// InspectorLevel returns the parsed inspector relay level.
func (c *Config) InspectorLevel() (slog.Level, error) {
	level, err := logging.ParseLevel(c.Inspector.Level)
	if err != nil {
		return 0, fmt.Errorf("inspector.level: %w", err)
	}
	return level, nil
}

// SinkConfig converts the logging section. Every parse error is
// reported, not just the first.
func (c *Config) SinkConfig() (logging.SinkConfig, error) {
	var errs []error
	sink := logging.SinkConfig{
		Directory:   c.Logging.Directory,
		FileName:    c.Logging.FileName,
		MaxFileSize: c.Logging.MaxFileSize,
	}

	for _, name := range c.Logging.Targets {
		target, err := logging.ParseTarget(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("logging.targets: %w", err))
			continue
		}
		sink.Targets = append(sink.Targets, target)
	}

	var err error
	if sink.Rotation, err = logging.ParseRotationPolicy(c.Logging.Rotation); err != nil {
		errs = append(errs, fmt.Errorf("logging.rotation: %w", err))
	}
	if sink.Timezone, err = logging.ParseTimezonePolicy(c.Logging.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("logging.timezone: %w", err))
	}
	if sink.Level, err = logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if sink.Compression, err = logging.ParseCompression(c.Logging.Compression); err != nil {
		errs = append(errs, fmt.Errorf("logging.compression: %w", err))
	}

	if sink.Directory == "" && sink.HasTarget(logging.TargetLogDirectory) {
		if sink.Directory, err = DefaultLogDirectory(c.Identifier, runtime.GOOS); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return logging.SinkConfig{}, errors.Join(errs...)
	}
	if err := sink.Validate(); err != nil {
		return logging.SinkConfig{}, err
	}
	return sink, nil
}

// AutostartEntry returns the login registration that starts executable
// with the configured autostart arguments.
func (c *Config) AutostartEntry(executable string) autostart.Entry {
	name := c.ProductName
	if name == "" {
		name = c.Identifier
	}
	return autostart.Entry{
		Name:       name,
		Identifier: c.Identifier,
		Exec:       executable,
		Args:       c.Autostart.Args,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Identifier == "" {
		errs = append(errs, errors.New("identifier is required"))
	} else if strings.ContainsAny(c.Identifier, "/\\ ") {
		errs = append(errs, fmt.Errorf("identifier %q must not contain slashes or spaces", c.Identifier))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("workaround_policy: %w", err))
	}
	if _, err := c.InspectorLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SinkConfig(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
