// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bureau-foundation/deskboot/lib/clock"
)

// rotatedTimestampLayout names rotated files, e.g. logs_2026-03-01_14-05-09.log.
const rotatedTimestampLayout = "2006-01-02_15-04-05"

// rotatingFile is an io.Writer over <directory>/<name>.log that rotates
// the file before a write would push it past maxSize. A single write
// larger than maxSize still goes into a fresh file whole: records are
// never split across files.
type rotatingFile struct {
	directory   string
	name        string
	maxSize     int64
	rotation    RotationPolicy
	timezone    TimezonePolicy
	compression Compression
	clock       clock.Clock

	// onRotateError reports rotation problems that do not stop writing,
	// such as a failed rename or compression. It must not log through
	// the sink.
	onRotateError func(error)

	mu   sync.Mutex
	file *os.File
	size int64
}

func openRotatingFile(config SinkConfig, clk clock.Clock, onRotateError func(error)) (*rotatingFile, error) {
	if err := os.MkdirAll(config.Directory, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	r := &rotatingFile{
		directory:     config.Directory,
		name:          config.FileName,
		maxSize:       config.MaxFileSize,
		rotation:      config.Rotation,
		timezone:      config.Timezone,
		compression:   config.Compression,
		clock:         clk,
		onRotateError: onRotateError,
	}
	if err := r.openLocked(os.O_APPEND); err != nil {
		return nil, err
	}
	return r, nil
}

// path returns the current log file path.
func (r *rotatingFile) path() string {
	return filepath.Join(r.directory, r.name+".log")
}

func (r *rotatingFile) Write(data []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}
	if r.size > 0 && r.size+int64(len(data)) > r.maxSize {
		if err := r.rotateLocked(); err != nil {
			if r.file == nil {
				return 0, err
			}
			// The full file is still open; keep writing to it.
			r.report(err)
		}
	}
	written, err := r.file.Write(data)
	r.size += int64(written)
	return written, err
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *rotatingFile) openLocked(mode int) error {
	file, err := os.OpenFile(r.path(), os.O_WRONLY|os.O_CREATE|mode, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = file
	r.size = info.Size()
	return nil
}

func (r *rotatingFile) rotateLocked() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("closing full log file: %w", err)
	}
	r.file = nil

	var rotateErr error
	switch r.rotation {
	case KeepOne:
		if err := os.Remove(r.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			rotateErr = fmt.Errorf("discarding full log file: %w", err)
		}
	default:
		rotated, err := r.archiveLocked()
		if err != nil {
			rotateErr = err
			break
		}
		if _, err := compressFile(rotated, r.compression); err != nil {
			r.report(err)
		}
	}

	// Append: after a successful rotation the path is free, after a
	// failed one the full file must not be truncated.
	if err := r.openLocked(os.O_APPEND); err != nil {
		return errors.Join(rotateErr, err)
	}
	return rotateErr
}

func (r *rotatingFile) report(err error) {
	if r.onRotateError != nil {
		r.onRotateError(err)
	}
}

// archiveLocked renames the current file to a timestamped name that
// does not exist yet and returns the new path.
func (r *rotatingFile) archiveLocked() (string, error) {
	now := r.clock.Now()
	if r.timezone == TimezoneUTC {
		now = now.UTC()
	} else {
		now = now.In(time.Local)
	}
	base := r.name + "_" + now.Format(rotatedTimestampLayout)

	candidate := filepath.Join(r.directory, base+".log")
	for attempt := 1; r.taken(candidate); attempt++ {
		candidate = filepath.Join(r.directory, base+"."+strconv.Itoa(attempt)+".log")
	}
	if err := os.Rename(r.path(), candidate); err != nil {
		return "", fmt.Errorf("archiving full log file: %w", err)
	}
	return candidate, nil
}

// taken reports whether a rotated name is in use, compressed or not.
func (r *rotatingFile) taken(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return true
	}
	if r.compression != CompressionNone {
		if _, err := os.Stat(path + r.compression.extension()); err == nil {
			return true
		}
	}
	return false
}
