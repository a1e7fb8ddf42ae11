// Package backoff provides the exponential delay policy used when
// reconnecting a dropped push stream. Reconnection itself is layered
// outside the subscription; this is just the schedule.
package backoff

import "time"

// Backoff yields exponentially growing delays from Min up to Max.
// Not safe for concurrent use; each reconnect loop owns one.
type Backoff struct {
	Min time.Duration
	Max time.Duration

	next time.Duration
}

// New returns a Backoff doubling from min to max.
func New(min, max time.Duration) *Backoff {
	return &Backoff{Min: min, Max: max}
}

// Next returns the delay to wait before the upcoming attempt and
// advances the schedule.
func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Min
	}
	d := b.next
	b.next *= 2
	if b.next > b.Max {
		b.next = b.Max
	}
	return d
}

// Reset restarts the schedule, called after a connection has been
// healthy again.
func (b *Backoff) Reset() {
	b.next = 0
}
