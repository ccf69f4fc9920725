package transport

import (
	"testing"
	"time"
)

// TestBackoffGrowsAndCaps tests that delays double until the maximum is reached
func TestBackoffGrowsAndCaps(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 400*time.Millisecond)

	bases := []time.Duration{100, 200, 400, 400, 400}
	for i, base := range bases {
		base *= time.Millisecond
		got := b.Next()
		lo := time.Duration(float64(base) * 0.9)
		hi := time.Duration(float64(base) * 1.1)
		if got < lo || got > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", i, got, lo, hi)
		}
	}

	b.Reset()
	if got := b.Next(); got > 110*time.Millisecond {
		t.Errorf("delay after Reset() = %v, want about 100ms", got)
	}
}

// TestBackoffDefaults tests the fallback for invalid bounds
func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.Initial != 50*time.Millisecond || b.Max != b.Initial {
		t.Errorf("NewBackoff(0, 0) = %+v", b)
	}
}
