// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Target is a destination the sink writes records to.
type Target int

const (
	// TargetConsole renders records on the interactive console display.
	TargetConsole Target = iota + 1
	// TargetStdout writes records to standard output.
	TargetStdout
	// TargetLogDirectory writes JSON lines to a rotating file.
	TargetLogDirectory
)

func (t Target) String() string {
	switch t {
	case TargetConsole:
		return "console"
	case TargetStdout:
		return "stdout"
	case TargetLogDirectory:
		return "log_directory"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// ParseTarget parses the String form of a Target.
func ParseTarget(value string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "console":
		return TargetConsole, nil
	case "stdout":
		return TargetStdout, nil
	case "log_directory", "logdir":
		return TargetLogDirectory, nil
	default:
		return 0, fmt.Errorf("unknown log target %q (want console, stdout, or log_directory)", value)
	}
}

// RotationPolicy decides what happens to a full log file.
type RotationPolicy int

const (
	// KeepAll renames the full file with a timestamp suffix and keeps it.
	KeepAll RotationPolicy = iota + 1
	// KeepOne deletes the full file; only the current file exists.
	KeepOne
)

func (p RotationPolicy) String() string {
	switch p {
	case KeepAll:
		return "keep_all"
	case KeepOne:
		return "keep_one"
	default:
		return fmt.Sprintf("rotation(%d)", int(p))
	}
}

// ParseRotationPolicy parses the String form of a RotationPolicy.
func ParseRotationPolicy(value string) (RotationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "keep_all":
		return KeepAll, nil
	case "keep_one":
		return KeepOne, nil
	default:
		return 0, fmt.Errorf("unknown rotation policy %q (want keep_all or keep_one)", value)
	}
}

// TimezonePolicy selects the zone record timestamps and rotated file
// names are rendered in.
type TimezonePolicy int

const (
	TimezoneLocal TimezonePolicy = iota + 1
	TimezoneUTC
)

func (p TimezonePolicy) String() string {
	switch p {
	case TimezoneLocal:
		return "local"
	case TimezoneUTC:
		return "utc"
	default:
		return fmt.Sprintf("timezone(%d)", int(p))
	}
}

// ParseTimezonePolicy parses "local" or "utc".
func ParseTimezonePolicy(value string) (TimezonePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "local":
		return TimezoneLocal, nil
	case "utc":
		return TimezoneUTC, nil
	default:
		return 0, fmt.Errorf("unknown timezone policy %q (want local or utc)", value)
	}
}

// Compression selects how KeepAll compresses rotated files.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// ParseCompression parses "none", "zstd" or "lz4". The empty string
// means none.
func ParseCompression(value string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, zstd, or lz4)", value)
	}
}

// ParseLevel parses a slog level name ("debug", "info", "warn",
// "error", optionally with an offset such as "debug-4").
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", value, err)
	}
	return level, nil
}

// DefaultMaxFileSize is the size a log file may reach before rotation.
const DefaultMaxFileSize = 40_000

// SinkConfig describes the log sink. The rotation, size and timezone
// fields are passed through to the file target unchanged.
type SinkConfig struct {
	Targets []Target

	// Directory and FileName locate the LogDirectory target's file:
	// <Directory>/<FileName>.log.
	Directory string
	FileName  string

	MaxFileSize int64
	Rotation    RotationPolicy
	Timezone    TimezonePolicy
	Compression Compression

	// Level is the minimum level any target receives.
	Level slog.Level
}

// DefaultSinkConfig returns a config writing to the console, stdout and
// <directory>/logs.log, keeping every rotated file.
func DefaultSinkConfig(directory string) SinkConfig {
	return SinkConfig{
		Targets:     []Target{TargetConsole, TargetStdout, TargetLogDirectory},
		Directory:   directory,
		FileName:    "logs",
		MaxFileSize: DefaultMaxFileSize,
		Rotation:    KeepAll,
		Timezone:    TimezoneLocal,
		Compression: CompressionNone,
		Level:       slog.LevelInfo,
	}
}

// HasTarget reports whether target is configured.
func (c SinkConfig) HasTarget(target Target) bool {
	for _, configured := range c.Targets {
		if configured == target {
			return true
		}
	}
	return false
}

// Validate reports every problem with the config at once.
func (c SinkConfig) Validate() error {
	var errs []error

	if len(c.Targets) == 0 {
		errs = append(errs, errors.New("at least one log target is required"))
	}
	seen := make(map[Target]bool)
	for _, target := range c.Targets {
		switch target {
		case TargetConsole, TargetStdout, TargetLogDirectory:
		default:
			errs = append(errs, fmt.Errorf("unknown log target %s", target))
		}
		if seen[target] {
			errs = append(errs, fmt.Errorf("log target %s listed twice", target))
		}
		seen[target] = true
	}

	if c.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize))
	}
	if c.Rotation != KeepAll && c.Rotation != KeepOne {
		errs = append(errs, fmt.Errorf("unknown rotation policy %s", c.Rotation))
	}
	if c.Timezone != TimezoneLocal && c.Timezone != TimezoneUTC {
		errs = append(errs, fmt.Errorf("unknown timezone policy %s", c.Timezone))
	}
	switch c.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		errs = append(errs, fmt.Errorf("unknown compression %s", c.Compression))
	}

	if c.HasTarget(TargetLogDirectory) {
		if strings.TrimSpace(c.Directory) == "" {
			errs = append(errs, errors.New("log_directory target requires a directory"))
		}
		if strings.TrimSpace(c.FileName) == "" || strings.ContainsRune(c.FileName, '/') {
			errs = append(errs, fmt.Errorf("invalid log file name %q", c.FileName))
		}
	}

	return errors.Join(errs...)
}
