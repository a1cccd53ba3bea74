package chain

import "github.com/chaincorelabs/dposchain/validation"

// Restore is returned by every With* scope; callers must defer it so the
// prior value is restored on every exit path, including panics and early
// returns (§9 "save, set, run, restore").
type Restore func()

// WithSkipFlags temporarily replaces the controller's skip bitmask,
// returning a Restore that puts the prior value back.
func (c *Controller) WithSkipFlags(flags validation.SkipFlags) Restore {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.skip
	c.skip = flags
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.skip = prev
	}
}

// WithProducing temporarily sets the producing flag, consulted by handler
// authors via Controller.IsProducing.
func (c *Controller) WithProducing(producing bool) Restore {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.producing
	c.producing = producing
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.producing = prev
	}
}

// WithoutPendingTransactions snapshots and discards the pending
// transactions at scope start, leaving a fresh, empty pending session open
// for the duration of the scope (e.g. while generating a block from a clean
// base); restore re-queues whatever was pending before the scope began into
// the pending session open at that time.
func (c *Controller) WithoutPendingTransactions() Restore {
	c.mu.Lock()
	saved := c.snapshotPendingLocked()
	c.clearPendingLocked()
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.restorePendingLocked(saved)
	}
}
