// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package hostprobe

func readKernelRelease() string { return "" }
