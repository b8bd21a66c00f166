// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. These centralize
// the raw I/O that happens before the logging facade is bound or after
// startup has failed:
//
//   - Fatal error reporting to stderr when no logger exists yet. A
//     startup that fails while binding logging has nowhere else to say
//     so, and must say it before any window appears.
//   - Mapping a run() error to the process exit status, so a GUI
//     surface's own exit status becomes the launcher's.
package process
