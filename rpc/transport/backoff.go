package transport

import (
	"math/rand"
	"time"
)

// Backoff produces exponentially growing delays with a small random jitter (+-10%)
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	next time.Duration
}

// NewBackoff creates a backoff starting at initial and capped at max
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = 50 * time.Millisecond
	}
	if max < initial {
		max = initial
	}
	return &Backoff{Initial: initial, Max: max, next: initial}
}

// Next returns the delay to wait before the next attempt
func (b *Backoff) Next() time.Duration {
	base := b.next
	b.next *= 2
	if b.next > b.Max {
		b.next = b.Max
	}
	jitter := float64(base) * (0.9 + 0.2*rand.Float64())
	return time.Duration(jitter)
}

// Reset starts over at the initial delay
func (b *Backoff) Reset() {
	b.next = b.Initial
}
