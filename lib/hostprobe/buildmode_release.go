// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !debug

package hostprobe

const compiledBuildMode = BuildRelease
