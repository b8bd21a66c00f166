// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package autostart registers the application to start when the user
// logs in.
//
// On Linux and the BSDs the registration is an XDG desktop entry in
// $XDG_CONFIG_HOME/autostart (default ~/.config/autostart). On macOS it
// is a LaunchAgent property list in ~/Library/LaunchAgents. Other
// platforms return [ErrUnsupported].
//
// Registration is idempotent: an entry whose rendered content already
// matches the file on disk is not rewritten. Files are written through a
// temporary file and renamed into place so a crash never leaves a
// truncated entry for the session manager to parse.
package autostart
