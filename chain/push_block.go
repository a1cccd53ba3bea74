package chain

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/validation"
)

// PushBlock inserts b into the fork db and, if it becomes (or extends) the
// winning branch, applies it — taking the fast path when it directly
// extends the current head and a full reorganization when it wins from a
// different fork (§4.7 push_block). It reports false without error when b
// is already known or loses fork choice outright; both are "nothing to do"
// outcomes, not failures.
func (c *Controller) PushBlock(b *chaintypes.SignedBlock, skip validation.SkipFlags) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := chaintypes.ComputeBlockID(&b.Header)
	if err != nil {
		return false, fmt.Errorf("chain: push_block: %w", err)
	}

	if _, known := c.forkDB.Get(id); known {
		return false, nil
	}

	prevHead := c.dynamic.HeadBlockID
	c.forkDB.Add(id, b)
	newHead := c.forkDB.Head()

	switch {
	case newHead == nil || newHead.ID == prevHead:
		// b was stored but did not win fork choice; nothing to apply yet.
		return false, nil

	case b.ParentID() == prevHead && newHead.ID == id:
		if err := c.pushFastPathLocked(id, b, skip); err != nil {
			return false, err
		}
		return true, nil

	default:
		if err := c.reorgToLocked(prevHead, id, skip); err != nil {
			return false, err
		}
		return true, nil
	}
}

// pushFastPathLocked applies b directly on top of the current head (§4.7
// step 3).
func (c *Controller) pushFastPathLocked(id chaintypes.BlockID, b *chaintypes.SignedBlock, skip validation.SkipFlags) error {
	c.sessions.DiscardPending()
	if err := c.applyBlockLocked(id, b, skip); err != nil {
		c.forkDB.MarkInvalid(id)
		c.sessions.OpenPending()
		return err
	}
	c.forkDB.SetCurrentBranch(id, true)
	c.sessions.OpenPending()
	return nil
}

// reorgToLocked switches the current branch from oldHead to newHead (§4.7
// step 4): pop blocks back to their least common ancestor, then apply
// newHead's branch from the ancestor forward. On any failure applying the
// new branch, it unwinds back to oldHead and restores the original branch
// before surfacing the error, leaving the controller exactly where it
// started.
func (c *Controller) reorgToLocked(oldHead, newHead chaintypes.BlockID, skip validation.SkipFlags) error {
	popPath, pushPath, err := c.forkDB.FetchBranchFrom(oldHead, newHead)
	if err != nil {
		return fmt.Errorf("chain: reorg: %w", err)
	}

	snap := c.snapshotPendingLocked()
	c.sessions.DiscardPending()

	for range popPath {
		if err := c.popBlockLocked(); err != nil {
			c.sessions.OpenPending()
			c.restorePendingLocked(snap)
			return fmt.Errorf("chain: reorg: popping old branch: %w", err)
		}
	}

	applied := make([]chaintypes.BlockID, 0, len(pushPath))
	var applyErr error
	for i := len(pushPath) - 1; i >= 0; i-- {
		n := pushPath[i]
		if err := c.applyBlockLocked(n.ID, n.Block, skip); err != nil {
			applyErr = err
			break
		}
		c.forkDB.SetCurrentBranch(n.ID, true)
		applied = append(applied, n.ID)
	}

	if applyErr != nil {
		c.forkDB.MarkInvalid(newHead)
		for i := len(applied) - 1; i >= 0; i-- {
			_ = c.popBlockLocked()
			c.forkDB.SetCurrentBranch(applied[i], false)
		}
		for i := len(popPath) - 1; i >= 0; i-- {
			n := popPath[i]
			if err := c.applyBlockLocked(n.ID, n.Block, skip); err != nil {
				c.sessions.OpenPending()
				return fmt.Errorf("chain: reorg: failed (%w) and could not restore original branch: %v", applyErr, err)
			}
			c.forkDB.SetCurrentBranch(n.ID, true)
		}
		c.sessions.OpenPending()
		c.restorePendingLocked(snap)
		return applyErr
	}

	for _, n := range popPath {
		c.forkDB.SetCurrentBranch(n.ID, false)
	}
	c.sessions.OpenPending()
	c.restorePendingLocked(snap)
	return nil
}
