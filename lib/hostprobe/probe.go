// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostprobe

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Prober reads host signals. The zero value is not usable; construct
// with [NewProber].
type Prober struct {
	// procRoot and sysRoot are the roots of the proc and sysfs
	// filesystems. "/proc" and "/sys" in production; synthetic
	// directories in tests.
	procRoot string
	sysRoot  string

	// lookupEnv reads an environment variable.
	lookupEnv func(string) (string, bool)

	// goos is the operating system the probe answers for.
	goos string

	// kernelRelease returns the uname release string.
	kernelRelease func() string
}

// NewProber creates a Prober that reads the real /proc, /sys and process
// environment of the running OS.
func NewProber() *Prober {
	return &Prober{
		procRoot:      "/proc",
		sysRoot:       "/sys",
		lookupEnv:     os.LookupEnv,
		goos:          runtime.GOOS,
		kernelRelease: readKernelRelease,
	}
}

// newProberFrom creates a Prober with synthetic filesystem roots, a
// fixed environment, and an explicit GOOS for tests.
func newProberFrom(procRoot, sysRoot string, env map[string]string, goos string) *Prober {
	return &Prober{
		procRoot: procRoot,
		sysRoot:  sysRoot,
		lookupEnv: func(key string) (string, bool) {
			value, ok := env[key]
			return value, ok
		},
		goos:          goos,
		kernelRelease: func() string { return "" },
	}
}

// Probe collects every host signal. mode is the build mode of the
// binary, normally [CompiledBuildMode]; it is passed in rather than read
// here so callers and tests can pin it explicitly.
//
// Probe never fails.
func (p *Prober) Probe(mode BuildMode) HostSignals {
	signals := HostSignals{
		DisplayProtocol: p.DisplayProtocol(),
		GPUVendor:       p.GPUVendor(),
		Virtualization:  p.Virtualization(),
		BuildMode:       mode,
		Platform:        ClassifyPlatform(p.goos),
		OS:              p.goos,
	}
	if p.goos == "linux" {
		signals.KernelRelease = p.kernelRelease()
	}
	return signals
}

// DisplayProtocol reports the session's display protocol. A non-empty
// WAYLAND_DISPLAY wins; XDG_SESSION_TYPE is consulted next, then
// DISPLAY. Non-Linux hosts always report DisplayUnknown.
func (p *Prober) DisplayProtocol() DisplayProtocol {
	if p.goos != "linux" {
		return DisplayUnknown
	}
	if value, ok := p.lookupEnv("WAYLAND_DISPLAY"); ok && strings.TrimSpace(value) != "" {
		return DisplayWayland
	}
	if value, ok := p.lookupEnv("XDG_SESSION_TYPE"); ok {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "wayland":
			return DisplayWayland
		case "x11":
			return DisplayX11
		}
	}
	if value, ok := p.lookupEnv("DISPLAY"); ok && strings.TrimSpace(value) != "" {
		return DisplayX11
	}
	return DisplayUnknown
}

// GPUVendor reports GPUNvidia when the proprietary NVIDIA kernel driver
// is loaded (it publishes /proc/driver/nvidia/version), GPUOther
// otherwise. Nouveau does not create the marker and counts as other:
// the renderer problems this signal exists for are specific to the
// proprietary driver.
func (p *Prober) GPUVendor() GPUVendor {
	if p.goos != "linux" {
		return GPUUnknown
	}
	if pathExists(filepath.Join(p.procRoot, "driver/nvidia/version")) {
		return GPUNvidia
	}
	return GPUOther
}

// Virtualization matches the DMI product name against known hypervisor
// products, case-insensitively. An absent product name file means bare
// metal (or no DMI at all) and reports VirtNone; a file that exists but
// cannot be read reports VirtUnknown.
func (p *Prober) Virtualization() VirtualizationVendor {
	if p.goos != "linux" {
		return VirtNone
	}
	data, err := os.ReadFile(filepath.Join(p.sysRoot, "class/dmi/id/product_name"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return VirtNone
		}
		return VirtUnknown
	}
	return MatchHypervisor(string(data))
}

// MatchHypervisor classifies a DMI product name.
func MatchHypervisor(productName string) VirtualizationVendor {
	name := strings.ToLower(productName)
	switch {
	case strings.Contains(name, "virtualbox"):
		return VirtVirtualBox
	case strings.Contains(name, "vmware"):
		return VirtVMware
	default:
		return VirtNone
	}
}

// pathExists reports whether path can be stat'ed. Permission errors on
// the path itself count as absent.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
