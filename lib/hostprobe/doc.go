// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostprobe reads the host signals that decide which renderer
// workarounds a desktop launch needs: display protocol, GPU driver,
// virtualization vendor, build mode, and platform class.
//
// Every probe is total. Missing or unreadable sources map to the
// Unknown/None value of the signal rather than an error, because a host
// with no DMI table or no session variables is still a host the
// application must start on.
//
// Signal sources on Linux:
//
//   - WAYLAND_DISPLAY, XDG_SESSION_TYPE, DISPLAY for the display protocol
//   - /proc/driver/nvidia/version for the proprietary NVIDIA driver
//   - /sys/class/dmi/id/product_name for the hypervisor product name
//
// On every other OS the probes return their fallback values without
// touching the filesystem. The build mode is not probed at all: it is
// fixed at compile time by the "debug" build tag (see [CompiledBuildMode]).
//
// Probing only reads. Nothing in this package writes to the process
// environment or the filesystem.
package hostprobe
