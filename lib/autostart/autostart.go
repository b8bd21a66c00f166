// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package autostart

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrUnsupported is returned on platforms without an autostart
// mechanism.
var ErrUnsupported = errors.New("autostart is not supported on this platform")

// Entry describes what to start at login.
type Entry struct {
	// Name is the human-readable application name.
	Name string

	// Identifier is a reverse-DNS application identifier
	// ("dev.example.app"). It names the registration file.
	Identifier string

	// Exec is the absolute path of the executable to start.
	Exec string

	// Args are passed to Exec.
	Args []string
}

// Validate checks that the entry can be rendered into a registration
// file.
func (e Entry) Validate() error {
	var errs []error
	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, errors.New("autostart entry requires a name"))
	}
	if e.Identifier == "" || strings.ContainsAny(e.Identifier, "/\\ ") {
		errs = append(errs, fmt.Errorf("invalid autostart identifier %q", e.Identifier))
	}
	if !filepath.IsAbs(e.Exec) {
		errs = append(errs, fmt.Errorf("autostart executable must be an absolute path, got %q", e.Exec))
	}
	return errors.Join(errs...)
}

// Registrar manages login registration for one platform mechanism.
type Registrar interface {
	// Register installs or updates the registration for entry.
	Register(entry Entry) error

	// Unregister removes the registration for entry's identifier.
	// Removing a registration that does not exist is not an error.
	Unregister(entry Entry) error

	// Registered reports whether a registration for entry's identifier
	// exists.
	Registered(entry Entry) (bool, error)
}

// ForPlatform returns the Registrar for goos, rooted in the invoking
// user's home directory.
func ForPlatform(goos string) (Registrar, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		directory, err := xdgAutostartDirectory()
		if err != nil {
			return nil, err
		}
		return NewXDG(directory), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		return NewLaunchAgent(filepath.Join(home, "Library", "LaunchAgents")), nil
	default:
		return unsupported{goos: goos}, nil
	}
}

// Default returns the Registrar for the running platform.
func Default() (Registrar, error) {
	return ForPlatform(runtime.GOOS)
}

func xdgAutostartDirectory() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(configHome) {
		return filepath.Join(configHome, "autostart"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "autostart"), nil
}

// fileRegistrar is the shared implementation of the file-based
// mechanisms: one rendered file per identifier in a directory.
type fileRegistrar struct {
	directory string
	extension string
	render    func(Entry) []byte
}

func (r *fileRegistrar) path(entry Entry) string {
	return filepath.Join(r.directory, entry.Identifier+r.extension)
}

func (r *fileRegistrar) Register(entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	content := r.render(entry)
	path := r.path(entry)

	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading existing autostart entry: %w", err)
	}

	if err := os.MkdirAll(r.directory, 0755); err != nil {
		return fmt.Errorf("creating autostart directory: %w", err)
	}
	return writeFileAtomic(path, content)
}

func (r *fileRegistrar) Unregister(entry Entry) error {
	if err := os.Remove(r.path(entry)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing autostart entry: %w", err)
	}
	return nil
}

func (r *fileRegistrar) Registered(entry Entry) (bool, error) {
	_, err := os.Stat(r.path(entry))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking autostart entry: %w", err)
}

// writeFileAtomic writes data to a temporary file beside path, syncs
// it, and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary autostart file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary autostart file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary autostart file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary autostart file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("installing autostart file: %w", err)
	}
	return nil
}

type unsupported struct {
	goos string
}

func (u unsupported) Register(Entry) error {
	return fmt.Errorf("%w (%s)", ErrUnsupported, u.goos)
}

func (u unsupported) Unregister(Entry) error {
	return fmt.Errorf("%w (%s)", ErrUnsupported, u.goos)
}

func (u unsupported) Registered(Entry) (bool, error) {
	return false, fmt.Errorf("%w (%s)", ErrUnsupported, u.goos)
}
