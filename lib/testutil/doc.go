// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by deskboot's tests.
//
// [SocketPath] returns a unix socket path short enough for sun_path.
// [RequireReceive] reads a channel with a deadline so a test never
// hangs on a value that is never sent. [LogBuffer] captures a JSON
// slog.Logger's output and decodes it back into records.
//
// Helpers fail the test through t.Fatalf instead of returning errors.
package testutil
