// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package startup runs deskboot's startup sequence in its fixed order:
//
//  1. probe the host signals (never fails);
//  2. compute the renderer overrides for them (pure);
//  3. apply the overrides to the process environment, once, on Linux
//     only. This produces the [EnvironmentSealed] token;
//  4. construct the log sink and bind the logging facade. A failure
//     here is a [*FatalError] and nothing after it runs;
//  5. run the feature-gated auxiliaries (inspector smoke test,
//     autostart), logging failures and continuing;
//  6. hand the token, the [StartupContext] and the plugin registry to
//     the GUI [Runtime].
//
// The sequence runs on one goroutine before anything else in the
// process starts. Step 3 writes process-global environment variables,
// and nothing may read the environment concurrently while it does. The
// token makes the ordering checkable: a Runtime refuses to create a
// surface without a token only step 3 can produce, so no code path
// reaches GUI creation ahead of the environment write.
package startup
