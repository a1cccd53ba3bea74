package chain

import "github.com/chaincorelabs/dposchain/chaintypes"

// SetCheckpoint installs or replaces the expected block id for num (§4.8
// Checkpoints).
func (c *Controller) SetCheckpoint(num uint32, id chaintypes.BlockID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkpoints[num] = id
}

// ClearCheckpoints removes every configured checkpoint.
func (c *Controller) ClearCheckpoints() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkpoints = make(map[uint32]chaintypes.BlockID)
}

// highestCheckpointLocked returns the highest checkpointed block number,
// or 0 if none are configured. Blocks strictly before it may skip
// signature checks (§4.8).
func (c *Controller) highestCheckpointLocked() uint32 {
	var max uint32
	for num := range c.checkpoints {
		if num > max {
			max = num
		}
	}
	return max
}

// checkCheckpointLocked validates b's id against any checkpoint configured
// for its number.
func (c *Controller) checkCheckpointLocked(num uint32, id chaintypes.BlockID) error {
	expected, ok := c.checkpoints[num]
	if !ok {
		return nil
	}
	if expected != id {
		return chaintypes.NewBlockError(chaintypes.KindCheckpointMismatch, id, errCheckpointMismatch(num, expected, id))
	}
	return nil
}
