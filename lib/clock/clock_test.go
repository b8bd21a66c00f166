// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := Fake(start)

	if !fake.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", fake.Now(), start)
	}

	fake.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !fake.Now().Equal(want) {
		t.Errorf("after Advance: %v, want %v", fake.Now(), want)
	}

	later := start.Add(24 * time.Hour)
	fake.Set(later)
	if !fake.Now().Equal(later) {
		t.Errorf("after Set: %v, want %v", fake.Now(), later)
	}
}

func TestRealClockMoves(t *testing.T) {
	before := time.Now()
	now := Real().Now()
	if now.Before(before) {
		t.Errorf("Real().Now() = %v is before %v", now, before)
	}
}
