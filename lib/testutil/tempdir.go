// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SocketPath returns a path for a unix socket named name. t.TempDir
// paths can exceed the 108-byte sun_path limit, so the directory is
// created directly under /tmp and removed when the test completes.
func SocketPath(t testing.TB, name string) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "deskboot-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(directory) })
	return filepath.Join(directory, name)
}
