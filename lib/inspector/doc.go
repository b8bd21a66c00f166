// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package inspector is the interactive side of deskboot's logging: the
// console log records are rendered on, and the relay that streams them
// to a separate inspector process.
//
// Two consumers implement [Display]:
//
//   - [Console] renders records as styled, width-truncated lines on a
//     terminal (lipgloss styles, termenv colour profile, x/ansi
//     truncation).
//   - [Client] encodes records as a CBOR stream over a unix
//     socket to a [Server], which hands them to its own Display. The
//     deskboot-inspector binary is that server.
//
// Both also implement [Inspector], the open/close lifecycle the debug
// build smoke-tests once at startup ([SmokeTest]).
//
// This package knows nothing about slog handlers or the logging facade.
// lib/logging converts slog records with [RecordFromSlog] and decides
// which records reach a Display.
package inspector
