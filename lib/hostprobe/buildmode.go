// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostprobe

// CompiledBuildMode returns the build mode fixed at compile time.
// Binaries built with "-tags debug" report BuildDebug; everything else
// is a release build.
func CompiledBuildMode() BuildMode {
	return compiledBuildMode
}
