// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workaround

import (
	"sort"
	"strings"
)

// Override names a single renderer workaround.
type Override string

const (
	// DisableDmabufRenderer turns off the zero-copy DMA-buffer
	// rendering path.
	DisableDmabufRenderer Override = "disableDmabufRenderer"

	// DisableCompositing turns off accelerated compositing mode.
	DisableCompositing Override = "disableCompositing"
)

// environmentVariables maps each override to the renderer variable it
// controls.
var environmentVariables = map[Override]string{
	DisableDmabufRenderer: "WEBKIT_DISABLE_DMABUF_RENDERER",
	DisableCompositing:    "WEBKIT_DISABLE_COMPOSITING_MODE",
}

// EnvironmentVariable returns the environment variable that carries
// override o, or "" for an unrecognized override.
func EnvironmentVariable(o Override) string {
	return environmentVariables[o]
}

// Set is a set of overrides. The zero value is an empty set ready to
// use; Add allocates on first insert.
type Set struct {
	members map[Override]struct{}
}

// NewSet returns a set holding the given overrides.
func NewSet(overrides ...Override) Set {
	var set Set
	for _, o := range overrides {
		set.Add(o)
	}
	return set
}

// Add inserts o. Adding an existing member is a no-op.
func (s *Set) Add(o Override) {
	if s.members == nil {
		s.members = make(map[Override]struct{})
	}
	s.members[o] = struct{}{}
}

// Has reports whether o is in the set.
func (s Set) Has(o Override) bool {
	_, ok := s.members[o]
	return ok
}

// Len returns the number of overrides in the set.
func (s Set) Len() int { return len(s.members) }

// Union returns a new set holding the members of s and other. Neither
// operand is modified.
func (s Set) Union(other Set) Set {
	var result Set
	for o := range s.members {
		result.Add(o)
	}
	for o := range other.members {
		result.Add(o)
	}
	return result
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []Override {
	sorted := make([]Override, 0, len(s.members))
	for o := range s.members {
		sorted = append(sorted, o)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

// Equal reports whether s and other hold the same overrides.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for o := range s.members {
		if !other.Has(o) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	names := make([]string, 0, s.Len())
	for _, o := range s.Sorted() {
		names = append(names, string(o))
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// RendererFlags returns the environment form of the set: each
// override's variable mapped to "1". Callers that configure the
// renderer directly, or build a child process environment, use this
// instead of mutating the process environment.
func RendererFlags(s Set) map[string]string {
	flags := make(map[string]string, s.Len())
	for o := range s.members {
		if name := EnvironmentVariable(o); name != "" {
			flags[name] = "1"
		}
	}
	return flags
}
