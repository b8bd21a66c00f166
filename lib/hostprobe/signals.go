// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostprobe

import (
	"fmt"
	"strings"
)

// DisplayProtocol is the windowing-system protocol of the session.
type DisplayProtocol int

const (
	DisplayUnknown DisplayProtocol = iota
	DisplayX11
	DisplayWayland
)

func (p DisplayProtocol) String() string {
	switch p {
	case DisplayX11:
		return "x11"
	case DisplayWayland:
		return "wayland"
	default:
		return "unknown"
	}
}

// ParseDisplayProtocol parses the String form of a DisplayProtocol.
func ParseDisplayProtocol(value string) (DisplayProtocol, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "x11":
		return DisplayX11, nil
	case "wayland":
		return DisplayWayland, nil
	case "unknown":
		return DisplayUnknown, nil
	default:
		return DisplayUnknown, fmt.Errorf("unknown display protocol %q", value)
	}
}

// GPUVendor distinguishes the proprietary NVIDIA driver from everything
// else. Only the NVIDIA driver changes renderer behavior, so no finer
// classification is kept.
type GPUVendor int

const (
	GPUUnknown GPUVendor = iota
	GPUOther
	GPUNvidia
)

func (v GPUVendor) String() string {
	switch v {
	case GPUOther:
		return "other"
	case GPUNvidia:
		return "nvidia"
	default:
		return "unknown"
	}
}

// ParseGPUVendor parses the String form of a GPUVendor.
func ParseGPUVendor(value string) (GPUVendor, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "nvidia":
		return GPUNvidia, nil
	case "other":
		return GPUOther, nil
	case "unknown":
		return GPUUnknown, nil
	default:
		return GPUUnknown, fmt.Errorf("unknown gpu vendor %q", value)
	}
}

// VirtualizationVendor identifies the hypervisor the host runs under.
// VirtNone means bare metal or an unrecognized product; VirtUnknown
// means the product name could not be read.
type VirtualizationVendor int

const (
	VirtNone VirtualizationVendor = iota
	VirtUnknown
	VirtVirtualBox
	VirtVMware
)

func (v VirtualizationVendor) String() string {
	switch v {
	case VirtNone:
		return "none"
	case VirtVirtualBox:
		return "virtualbox"
	case VirtVMware:
		return "vmware"
	default:
		return "unknown"
	}
}

// IsHypervisor reports whether v is a recognized virtual machine.
func (v VirtualizationVendor) IsHypervisor() bool {
	return v == VirtVirtualBox || v == VirtVMware
}

// ParseVirtualizationVendor parses the String form of a VirtualizationVendor.
func ParseVirtualizationVendor(value string) (VirtualizationVendor, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return VirtNone, nil
	case "virtualbox":
		return VirtVirtualBox, nil
	case "vmware":
		return VirtVMware, nil
	case "unknown":
		return VirtUnknown, nil
	default:
		return VirtUnknown, fmt.Errorf("unknown virtualization vendor %q", value)
	}
}

// BuildMode is the build flavor of the running binary.
type BuildMode int

const (
	BuildRelease BuildMode = iota
	BuildDebug
)

func (m BuildMode) String() string {
	if m == BuildDebug {
		return "debug"
	}
	return "release"
}

// ParseBuildMode parses "debug" or "release".
func ParseBuildMode(value string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return BuildDebug, nil
	case "release":
		return BuildRelease, nil
	default:
		return BuildRelease, fmt.Errorf("unknown build mode %q (want debug or release)", value)
	}
}

// PlatformClass groups target operating systems by the auxiliary
// subsystems they support.
type PlatformClass int

const (
	PlatformOther PlatformClass = iota
	PlatformDesktop
	PlatformMobile
)

func (c PlatformClass) String() string {
	switch c {
	case PlatformDesktop:
		return "desktop"
	case PlatformMobile:
		return "mobile"
	default:
		return "other"
	}
}

// ClassifyPlatform maps a GOOS value to its platform class.
func ClassifyPlatform(goos string) PlatformClass {
	switch goos {
	case "linux", "darwin", "windows", "freebsd", "openbsd", "netbsd", "dragonfly":
		return PlatformDesktop
	case "android", "ios":
		return PlatformMobile
	default:
		return PlatformOther
	}
}

// HostSignals is the result of probing the host once at process start.
// Every field has a defined fallback; a zero HostSignals describes an
// unknown release-mode host with no GPU or hypervisor information.
type HostSignals struct {
	DisplayProtocol DisplayProtocol
	GPUVendor       GPUVendor
	Virtualization  VirtualizationVendor
	BuildMode       BuildMode
	Platform        PlatformClass

	// OS is the GOOS the probe ran under.
	OS string

	// KernelRelease is the uname release string on Linux, empty
	// elsewhere. Informational only: no workaround keys on it.
	KernelRelease string
}

// Attrs returns the signals as alternating slog key/value arguments.
func (s HostSignals) Attrs() []any {
	return []any{
		"display_protocol", s.DisplayProtocol.String(),
		"gpu_vendor", s.GPUVendor.String(),
		"virtualization", s.Virtualization.String(),
		"build_mode", s.BuildMode.String(),
		"platform", s.Platform.String(),
		"os", s.OS,
		"kernel_release", s.KernelRelease,
	}
}
