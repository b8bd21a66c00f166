// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the launcher configuration.
//
// The file is found through the --config flag or, failing that, the
// DESKBOOT_CONFIG environment variable. With neither set the built-in
// defaults are used unchanged. There is no directory search.
//
// Files ending in .json or .jsonc are parsed as JSON with comments and
// trailing commas allowed; anything else is YAML. Unknown fields are
// rejected in both formats so a misspelled key fails loudly instead of
// silently keeping its default.
//
// A file may carry debug: and release: sections. The one matching the
// build mode is applied over the base values after loading.
//
// ${VAR} and ${VAR:-default} are expanded in path fields (command, log
// directory, inspector socket) after the overrides are applied.
// ${DESKBOOT_IDENTIFIER} expands to the configured identifier.
//
// Key exports:
//
//   - [Config] with [Config.SinkConfig], [Config.Policy] and
//     [Config.AutostartEntry] converting to the types the startup
//     sequence consumes
//   - [Default], [Load] and [LoadFile]
package config
