// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package workaround maps probed host signals to the renderer overrides
// that keep the GUI runtime working on hosts with known renderer
// problems, and applies those overrides to an environment.
//
// [Compute] is pure: the same signals and [Policy] always produce the
// same [Set]. [Apply] is the only side-effecting function and is
// idempotent: it sets each override's variable to "1" and never clears
// a variable, so applying a set twice leaves the environment exactly as
// applying it once.
//
// The renderer reads these variables only while it initializes. Apply
// must therefore run before any GUI surface or renderer context exists;
// lib/startup enforces that ordering.
package workaround
