// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNow(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
}

func TestFakeAdvance(t *testing.T) {
	c := Fake(epoch)
	c.Advance(90 * time.Second)

	want := epoch.Add(90 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
	if got := c.Since(epoch); got != 90*time.Second {
		t.Errorf("Since(epoch) = %v, want 90s", got)
	}
}

func TestFakeAdvanceNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for negative Advance")
		}
	}()
	Fake(epoch).Advance(-time.Second)
}

func TestFakeSet(t *testing.T) {
	c := Fake(epoch)
	earlier := epoch.Add(-time.Hour)
	c.Set(earlier)
	if got := c.Now(); !got.Equal(earlier) {
		t.Errorf("Now() after Set = %v, want %v", got, earlier)
	}
}

func TestRealSince(t *testing.T) {
	start := Real().Now()
	if Real().Since(start) < 0 {
		t.Error("Since returned a negative duration")
	}
}
