// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what a deskboot binary was built from.
//
// [Version] is the only value injected with -ldflags. The git revision,
// commit time and dirty flag come from the VCS stamp the Go toolchain
// records in the binary ([Current]), and the build mode follows the
// debug build tag. [Full] is the text "deskboot version" prints.
package version
