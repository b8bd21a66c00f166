// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package hostprobe

import "golang.org/x/sys/unix"

// readKernelRelease returns the kernel release string from uname(2), or
// "" if the call fails.
func readKernelRelease() string {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return ""
	}
	return unix.ByteSliceToString(utsname.Release[:])
}
