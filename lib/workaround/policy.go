// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workaround

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/deskboot/lib/hostprobe"
)

// Policy selects which rule set Compute applies. The two policies agree
// on NVIDIA hosts and disagree everywhere else, so the choice is always
// explicit configuration.
type Policy int

const (
	// PolicyConditional disables the DMA-buffer renderer only where it
	// is known to break: the NVIDIA driver under Wayland, and Wayland
	// sessions inside VirtualBox or VMware.
	PolicyConditional Policy = iota

	// PolicyUnconditional disables the DMA-buffer renderer on every
	// host.
	PolicyUnconditional
)

func (p Policy) String() string {
	if p == PolicyUnconditional {
		return "unconditional"
	}
	return "conditional"
}

// ParsePolicy parses "conditional" or "unconditional".
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "conditional":
		return PolicyConditional, nil
	case "unconditional":
		return PolicyUnconditional, nil
	default:
		return PolicyConditional, fmt.Errorf("unknown workaround policy %q (want conditional or unconditional)", value)
	}
}

// Compute returns the overrides that signals call for under policy.
// Rules are independent and combined by union:
//
//   - NVIDIA driver on Wayland: disable the DMA-buffer renderer.
//   - NVIDIA driver on any protocol: disable compositing.
//   - Wayland inside VirtualBox or VMware: disable the DMA-buffer renderer.
//
// PolicyUnconditional replaces the two DMA-buffer rules with one that
// always fires.
func Compute(policy Policy, signals hostprobe.HostSignals) Set {
	var set Set

	nvidia := signals.GPUVendor == hostprobe.GPUNvidia
	wayland := signals.DisplayProtocol == hostprobe.DisplayWayland

	switch policy {
	case PolicyUnconditional:
		set.Add(DisableDmabufRenderer)
	default:
		if nvidia && wayland {
			set.Add(DisableDmabufRenderer)
		}
		if wayland && signals.Virtualization.IsHypervisor() {
			set.Add(DisableDmabufRenderer)
		}
	}

	if nvidia {
		set.Add(DisableCompositing)
	}

	return set
}
