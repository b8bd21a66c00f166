// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command tree deskboot binaries share:
// [Command] dispatch with pflag flags, generated help, and typo
// suggestions for unknown commands and flags. [NewCommandLogger] is
// the logger for commands that never bind the logging facade.
package cli
