package chain

import "fmt"

// PopBlock discards the most recently applied, still-reversible block: its
// retained store frame is rolled back and the dynamic properties revert to
// whatever they were immediately before that block was applied (§4.7
// pop_block). It fails if the top-of-stack block has already become
// irreversible and been squashed away (I6: irreversible blocks are never
// popped).
func (c *Controller) PopBlock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popBlockLocked()
}

func (c *Controller) popBlockLocked() error {
	if len(c.blockFrames) == 0 {
		return fmt.Errorf("chain: pop_block: no reversible block to pop")
	}
	top := c.blockFrames[len(c.blockFrames)-1]
	c.store.Rollback(top.id)
	c.blockFrames = c.blockFrames[:len(c.blockFrames)-1]
	c.dynamic = top.priorDynamic
	c.forkDB.SetCurrentBranch(top.blockID, false)
	return nil
}
