// Package growth holds the size economics of the arena: time-gated decay,
// additive growth from consumption, out-of-zone damage and the cosmetic
// evolution stage derived from size.
package growth

import (
	"math"
	"time"
)

// Params tunes decay.
type Params struct {
	// Interval is how long an entity must go without resetting activity
	// before one decay step applies.
	Interval time.Duration
	// Amount is subtracted per decay step.
	Amount float64
}

// DefaultParams mirrors the reference tuning: 0.5 units every two seconds.
func DefaultParams() Params {
	return Params{Interval: 2 * time.Second, Amount: 0.5}
}

// Timer tracks the last decay-relevant moment of one entity on the session
// clock.
type Timer struct {
	Last time.Duration
}

// Reset records activity at now, postponing the next decay step.
func (t *Timer) Reset(now time.Duration) {
	if t == nil {
		return
	}
	t.Last = now
}

// Due reports whether a decay step would apply at now.
func (t *Timer) Due(now time.Duration, interval time.Duration) bool {
	if t == nil {
		return false
	}
	return now-t.Last > interval
}

// ApplyDecay subtracts one decay step when the interval has elapsed since the
// timer's last reset and returns the new size with the (non-positive) delta.
// The timer is stamped whenever a step is due, so repeated calls at the same
// now never shrink twice.
func ApplyDecay(size, floor float64, timer *Timer, now time.Duration, p Params) (float64, float64) {
	if timer == nil || !timer.Due(now, p.Interval) {
		return size, 0
	}
	timer.Last = now
	if size <= floor {
		return size, 0
	}
	next := math.Max(floor, size-p.Amount)
	return next, next - size
}

// ApplyGrowth adds amount to size. Negative or non-finite amounts are ignored;
// there is no upper bound.
func ApplyGrowth(size, amount float64) float64 {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return size
	}
	return size + amount
}

// ZoneDamage shrinks size by rate units per second of dt, never below floor.
func ZoneDamage(size, floor float64, dt time.Duration, rate float64) float64 {
	if dt <= 0 || rate <= 0 || size <= floor {
		return size
	}
	return math.Max(floor, size-rate*dt.Seconds())
}
