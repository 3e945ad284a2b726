// Package backoff holds the retry delay policy for outbox delivery,
// separated from the sync engine so it can be tested without timers.
package backoff

import "time"

// Policy maps an attempt count to the delay before the next attempt.
// Doubling delay starting at Base, capped at Cap. A zero Base disables
// backoff, restoring fixed-interval retry every sync cycle.
type Policy struct {
	Base time.Duration
	Cap  time.Duration
}

// Delay returns how long to wait after the given number of failed
// attempts. Zero attempts means no failure yet, so no delay.
func (p Policy) Delay(attempts int) time.Duration {
	if p.Base <= 0 || attempts <= 0 {
		return 0
	}
	d := p.Base
	for i := 1; i < attempts; i++ {
		d *= 2
		if p.Cap > 0 && d >= p.Cap {
			return p.Cap
		}
	}
	if p.Cap > 0 && d > p.Cap {
		return p.Cap
	}
	return d
}

// NextAttemptAt returns the earliest time a retry is due.
func (p Policy) NextAttemptAt(lastAttempt time.Time, attempts int) time.Time {
	return lastAttempt.Add(p.Delay(attempts))
}

// Ready reports whether a retry is due at now. Entries that have never
// been attempted are always ready.
func (p Policy) Ready(now, lastAttempt time.Time, attempts int) bool {
	if attempts <= 0 || lastAttempt.IsZero() {
		return true
	}
	return !now.Before(p.NextAttemptAt(lastAttempt, attempts))
}
