package chain

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/validation"
)

// Replay linearly re-applies every block in the controller's block log from
// the block after the current head through the log's current head (§4.9),
// using validation.ReplaySkip
// since every one of these blocks already passed full validation the first
// time it was applied. It is meant to be called once, right after New,
// before any PushBlock/PushTransaction traffic arrives.
func (c *Controller) Replay() error {
	if c.blockLog == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions.DiscardPending()
	defer c.sessions.OpenPending()

	head := c.blockLog.Head()
	for num := c.dynamic.HeadBlockNumber + 1; num <= head; num++ {
		b, err := c.blockLog.ReadBlock(num)
		if err != nil {
			return fmt.Errorf("chain: replay: reading block %d: %w", num, err)
		}
		id, err := chaintypes.ComputeBlockID(&b.Header)
		if err != nil {
			return fmt.Errorf("chain: replay: hashing block %d: %w", num, err)
		}
		c.forkDB.Add(id, b)
		if err := c.applyBlockLocked(id, b, validation.ReplaySkip); err != nil {
			return fmt.Errorf("chain: replay: applying block %d: %w", num, err)
		}
		c.forkDB.SetCurrentBranch(id, true)
		// every replayed block is, by definition, already irreversible
		// (only irreversible blocks are ever appended to the log), so fold
		// its frame into committed state immediately rather than waiting
		// for the normal 2/3+1 computation to catch up.
		c.squashIrreversibleFramesLocked(num)
		c.dynamic.LastIrreversibleBlockNum = num
	}
	return nil
}
