// Package slot implements the pure block-time/slot-number calculus (§4.1):
// a stateless mapping between wall-clock timestamps and the fixed-width
// production slots producers are scheduled into.
package slot

import "time"

// Calculus converts between slot numbers and block-interval-aligned
// timestamps relative to a reference head-block time. It holds no state of
// its own across calls other than the configured interval.
type Calculus struct {
	BlockInterval time.Duration
}

// New builds a Calculus for the given block interval. Panics if the
// interval is not positive, mirroring the configuration-time assertion this
// lineage uses for unrecoverable misconfiguration.
func New(blockInterval time.Duration) Calculus {
	if blockInterval <= 0 {
		panic("slot: block interval must be positive")
	}
	return Calculus{BlockInterval: blockInterval}
}

// SlotTime returns the timestamp of slot n relative to headBlockTime.
// n == 0 returns the zero time (the "no slot" sentinel). For n > 0 it
// returns the first block-interval-aligned timestamp greater than or equal
// to headBlockTime such that exactly n slots have elapsed since head.
func (c Calculus) SlotTime(headBlockTime time.Time, n uint32) time.Time {
	if n == 0 {
		return time.Time{}
	}
	if headBlockTime.IsZero() {
		// Genesis: slot 1 is simply one interval past the zero epoch the
		// caller anchors the chain on.
		return headBlockTime.Add(time.Duration(n) * c.BlockInterval)
	}
	aligned := c.align(headBlockTime)
	if aligned.Before(headBlockTime) || aligned.Equal(headBlockTime) {
		aligned = aligned.Add(c.BlockInterval)
	}
	return aligned.Add(time.Duration(n-1) * c.BlockInterval)
}

// SlotAt returns the greatest n such that SlotTime(n) <= when, or 0 if no
// such n exists (when is before SlotTime(1), the first aligned slot after
// headBlockTime).
func (c Calculus) SlotAt(headBlockTime time.Time, when time.Time) uint32 {
	first := c.SlotTime(headBlockTime, 1)
	if when.Before(first) {
		return 0
	}
	elapsed := when.Sub(first)
	n := uint32(elapsed/c.BlockInterval) + 1
	return n
}

// align rounds t down to the nearest multiple of BlockInterval since the
// Unix epoch.
func (c Calculus) align(t time.Time) time.Time {
	unixNanos := t.UnixNano()
	intervalNanos := c.BlockInterval.Nanoseconds()
	aligned := (unixNanos / intervalNanos) * intervalNanos
	return time.Unix(0, aligned).UTC()
}

// IsAligned reports whether t falls exactly on a block-interval boundary.
func (c Calculus) IsAligned(t time.Time) bool {
	return c.align(t).Equal(t.UTC())
}
