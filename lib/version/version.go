// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/bureau-foundation/deskboot/lib/hostprobe"
)

// Version is the release version, set with
//
//	-ldflags "-X github.com/bureau-foundation/deskboot/lib/version.Version=1.2.0"
var Version = "0.1.0-dev"

// Build describes the running binary.
type Build struct {
	Version   string
	Revision  string
	Modified  bool
	Time      string
	Mode      hostprobe.BuildMode
	GoVersion string
	Platform  string
}

// Current reads the VCS stamp the Go toolchain embeds in the binary.
// Test binaries and builds outside a checkout carry no stamp; their
// Revision and Time are "unknown".
func Current() Build {
	build := Build{
		Version:   Version,
		Revision:  "unknown",
		Time:      "unknown",
		Mode:      hostprobe.CompiledBuildMode(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		build.apply(info.Settings)
	}
	return build
}

func (b *Build) apply(settings []debug.BuildSetting) {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			b.Revision = setting.Value
			if len(b.Revision) > 12 {
				b.Revision = b.Revision[:12]
			}
		case "vcs.time":
			b.Time = setting.Value
		case "vcs.modified":
			b.Modified = setting.Value == "true"
		}
	}
}

// String is the one-line form: "1.2.0 (3f9c2a1b7d4e, 2026-10-01T00:00:00Z)".
func (b Build) String() string {
	revision := b.Revision
	if b.Modified {
		revision += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", b.Version, revision, b.Time)
}

// Full returns the one-line form followed by the build mode, Go
// version and platform, one per line.
func Full() string {
	build := Current()
	var text strings.Builder
	text.WriteString(build.String())
	fmt.Fprintf(&text, "\n  Build mode: %s", build.Mode)
	fmt.Fprintf(&text, "\n  Go: %s", build.GoVersion)
	fmt.Fprintf(&text, "\n  Platform: %s", build.Platform)
	return text.String()
}
