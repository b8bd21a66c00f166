// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workaround

import (
	"fmt"
	"os"
)

// Environment is the variable store overrides are written into.
type Environment interface {
	Getenv(key string) string
	Setenv(key, value string) error
}

// ProcessEnvironment is the real process environment. Writing to it is
// process-global state: no other goroutine may read the environment
// while Apply runs.
type ProcessEnvironment struct{}

func (ProcessEnvironment) Getenv(key string) string { return os.Getenv(key) }

func (ProcessEnvironment) Setenv(key, value string) error { return os.Setenv(key, value) }

// MapEnvironment is an in-memory Environment.
type MapEnvironment map[string]string

func (m MapEnvironment) Getenv(key string) string { return m[key] }

func (m MapEnvironment) Setenv(key, value string) error {
	m[key] = value
	return nil
}

// Change records one variable Apply wrote.
type Change struct {
	Override Override
	Variable string

	// Previous is the value the variable held before Apply, "" if unset.
	Previous string
}

// Apply writes every override in set to env as VARIABLE=1, in sorted
// override order. Variables already set to "1" are left alone and not
// reported, so a second Apply of the same set returns no changes.
// Overrides absent from set are never cleared.
func Apply(env Environment, set Set) ([]Change, error) {
	var changes []Change
	for _, o := range set.Sorted() {
		name := EnvironmentVariable(o)
		if name == "" {
			return changes, fmt.Errorf("override %q has no environment variable", o)
		}
		previous := env.Getenv(name)
		if previous == "1" {
			continue
		}
		if err := env.Setenv(name, "1"); err != nil {
			return changes, fmt.Errorf("setting %s: %w", name, err)
		}
		changes = append(changes, Change{Override: o, Variable: name, Previous: previous})
	}
	return changes, nil
}
