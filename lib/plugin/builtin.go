// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

// Environment variables the built-in plugins publish to the GUI process.
const (
	EnvLogFile         = "DESKBOOT_LOG_FILE"
	EnvDisplayProtocol = "DESKBOOT_DISPLAY_PROTOCOL"
	EnvGPUVendor       = "DESKBOOT_GPU_VENDOR"
	EnvVirtualization  = "DESKBOOT_VIRTUALIZATION"
	EnvBuildMode       = "DESKBOOT_BUILD_MODE"
)

// LogPlugin tells the GUI process where the launcher logs, so both
// write to the same file. Without a file target it publishes nothing.
func LogPlugin() Plugin {
	return Func{PluginName: "log", InitFunc: func(handle *Handle) error {
		if handle.Startup.LogFile == "" {
			return nil
		}
		return handle.SetChildEnv(EnvLogFile, handle.Startup.LogFile)
	}}
}

// HostPlugin publishes the probed host signals.
func HostPlugin() Plugin {
	return Func{PluginName: "host", InitFunc: func(handle *Handle) error {
		signals := handle.Startup.Signals
		for key, value := range map[string]string{
			EnvDisplayProtocol: signals.DisplayProtocol.String(),
			EnvGPUVendor:       signals.GPUVendor.String(),
			EnvVirtualization:  signals.Virtualization.String(),
			EnvBuildMode:       signals.BuildMode.String(),
		} {
			if err := handle.SetChildEnv(key, value); err != nil {
				return err
			}
		}
		return nil
	}}
}
