package chain

import (
	"fmt"
	"sort"
	"time"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/schedule"
	"github.com/chaincorelabs/dposchain/validation"
)

// applyBlockLocked is _apply_block (§4.7). Caller holds c.mu and has
// already inserted b into the fork db under id; the store's current
// committed-plus-pending-savepoints view must already reflect b's parent
// (true on the fast path by construction, and true during a reorg because
// push_list is applied in LCA-to-tip order right after the matching pops).
func (c *Controller) applyBlockLocked(id chaintypes.BlockID, b *chaintypes.SignedBlock, skip validation.SkipFlags) error {
	if err := c.validateBlockHeaderLocked(id, b, skip); err != nil {
		return err
	}

	prior := c.dynamic

	if err := c.sessions.OpenBlock(); err != nil {
		return fmt.Errorf("chain: apply_block: %w", err)
	}
	c.currentBlock = b
	defer func() { c.currentBlock = nil }()

	num := id.Num()
	c.putBlockSummaryLocked(num, id)
	c.updateDynamicPropertiesLocked(id, num, b)

	for _, tx := range b.Transactions {
		if err := c.sessions.OpenTx(); err != nil {
			c.sessions.RollbackBlock()
			c.dynamic = prior
			return fmt.Errorf("chain: apply_block: %w", err)
		}
		txID, err := c.applyTransactionLocked(tx, skip)
		if err != nil {
			c.sessions.RollbackTx()
			c.sessions.RollbackBlock()
			c.dynamic = prior
			return err
		}
		if err := c.sessions.CommitTx(); err != nil {
			c.sessions.RollbackBlock()
			c.dynamic = prior
			return fmt.Errorf("chain: apply_block: committing tx %s: %w", txID, err)
		}
	}

	c.updateProducerStatsLocked(b.Header.Producer, num)
	c.updateLastIrreversibleBlockLocked()
	c.clearExpiredTransactionsLocked()

	if num%schedule.ProducerCount == 0 {
		if err := c.updateProducerScheduleLocked(id); err != nil {
			c.log.Warn("update_producer_schedule failed", "err", err)
		}
		c.updateBlockchainConfigurationLocked()
	}

	frameID, err := c.sessions.ReleaseBlock()
	if err != nil {
		c.sessions.RollbackBlock()
		c.dynamic = prior
		return fmt.Errorf("chain: apply_block: %w", err)
	}
	c.blockFrames = append(c.blockFrames, blockFrame{id: frameID, num: num, blockID: id, priorDynamic: prior})

	c.forkDB.MarkValidated(id)
	c.emitAppliedBlock(b)
	return nil
}

func (c *Controller) validateBlockHeaderLocked(id chaintypes.BlockID, b *chaintypes.SignedBlock, skip validation.SkipFlags) error {
	if err := c.checkCheckpointLocked(id.Num(), id); err != nil {
		return err
	}

	if b.ParentID() != c.dynamic.HeadBlockID {
		return chaintypes.NewBlockError(chaintypes.KindUnknownParent, id, fmt.Errorf("expected parent %s, got %s", c.dynamic.HeadBlockID, b.ParentID()))
	}

	if !c.slotCalc.IsAligned(b.Header.Timestamp) || !b.Header.Timestamp.After(c.dynamic.HeadBlockTime) {
		return chaintypes.NewBlockError(chaintypes.KindBadTimestamp, id, fmt.Errorf("timestamp %s is not a slot-aligned time strictly after head %s", b.Header.Timestamp, c.dynamic.HeadBlockTime))
	}

	slotNum := c.slotCalc.SlotAt(c.dynamic.HeadBlockTime, b.Header.Timestamp)
	if !skip.Has(validation.SkipProducerScheduleCheck) {
		expected := c.schedule.ScheduledProducer(slotNum)
		if b.Header.Producer != expected {
			return chaintypes.NewBlockError(chaintypes.KindWrongProducer, id, fmt.Errorf("slot %d expects producer %s, got %s", slotNum, expected, b.Header.Producer))
		}
	}

	skipSig := skip.Has(validation.SkipProducerSignature)
	if checkpoint := c.highestCheckpointLocked(); checkpoint > 0 && id.Num() < checkpoint {
		skipSig = true
	}
	if !skipSig {
		prod, ok := c.producerLocked(b.Header.Producer)
		if !ok {
			return chaintypes.NewBlockError(chaintypes.KindWrongProducer, id, fmt.Errorf("unknown producer %s", b.Header.Producer))
		}
		digest, err := chaintypes.SigningDigest(&b.Header)
		if err != nil {
			return chaintypes.NewBlockError(chaintypes.KindInvalidBlockHeader, id, err)
		}
		if err := c.verifier.Verify(prod.SigningKey, digest, b.Header.ProducerSignature); err != nil {
			return chaintypes.NewBlockError(chaintypes.KindBadSignature, id, err)
		}
	}

	if !skip.Has(validation.SkipMerkleCheck) {
		ids := make([]chaintypes.TransactionID, len(b.Transactions))
		for i, tx := range b.Transactions {
			txID, err := chaintypes.HashTransaction(tx)
			if err != nil {
				return chaintypes.NewBlockError(chaintypes.KindInvalidBlockHeader, id, err)
			}
			ids[i] = txID
		}
		root := chaintypes.TransactionMerkleRoot(ids)
		if !bytesEqual(root, b.Header.TransactionMRoot) {
			return chaintypes.NewBlockError(chaintypes.KindMerkleMismatch, id, fmt.Errorf("transaction_mroot mismatch"))
		}
	}

	return nil
}

// updateDynamicPropertiesLocked advances the head pointer/time/producer
// and the rolling participation bitmap (§4.7): shift left, set the bit for
// the filled slot, and zero-fill any slots that were missed between the
// prior head and now.
func (c *Controller) updateDynamicPropertiesLocked(id chaintypes.BlockID, num uint32, b *chaintypes.SignedBlock) {
	slotNum := c.slotCalc.SlotAt(c.dynamic.HeadBlockTime, b.Header.Timestamp)
	missed := slotNum - 1
	if c.dynamic.HeadBlockNumber == 0 {
		missed = 0
	}
	for i := uint32(0); i < missed; i++ {
		c.dynamic.RecentSlotsFilled <<= 1
	}
	c.dynamic.RecentSlotsFilled <<= 1
	c.dynamic.RecentSlotsFilled |= 1

	c.dynamic.HeadBlockID = id
	c.dynamic.HeadBlockNumber = num
	c.dynamic.HeadBlockTime = b.Header.Timestamp
	c.dynamic.CurrentProducer = b.Header.Producer
}

func (c *Controller) updateProducerStatsLocked(owner chaintypes.AccountName, num uint32) {
	prod, ok := c.producerLocked(owner)
	if !ok {
		return
	}
	prod.LastProducedBlockNum = num
	_ = c.registerProducerLocked(prod)
}

// updateLastIrreversibleBlockLocked is §4.7's update_last_irreversible_block:
// sort confirmed producers by last-produced-block-num, take the
// (2/3+1)-th value as the new last-irreversible. Per Open Question (b) in
// SPEC_FULL.md §9, if fewer than 2/3+1 producers are active, leave
// last_irreversible_block_num unchanged rather than guessing.
func (c *Controller) updateLastIrreversibleBlockLocked() {
	round := c.schedule.Round()
	n := len(round)
	if n == 0 {
		return
	}
	threshold := n*2/3 + 1
	if threshold > n {
		return
	}

	lastProduced := make([]uint32, 0, n)
	for _, owner := range round {
		if prod, ok := c.producerLocked(owner); ok {
			lastProduced = append(lastProduced, prod.LastProducedBlockNum)
		} else {
			lastProduced = append(lastProduced, 0)
		}
	}
	sort.Slice(lastProduced, func(i, j int) bool { return lastProduced[i] > lastProduced[j] })
	candidate := lastProduced[threshold-1]
	if candidate <= c.dynamic.LastIrreversibleBlockNum {
		return
	}

	prevIrreversible := c.dynamic.LastIrreversibleBlockNum
	c.dynamic.LastIrreversibleBlockNum = candidate

	if c.blockLog != nil {
		for num := prevIrreversible + 1; num <= candidate; num++ {
			blkID, ok := c.blockSummaryLocked(num)
			if !ok {
				continue
			}
			node, ok := c.forkDB.Get(blkID)
			if !ok || node.Block == nil {
				continue
			}
			if err := c.blockLog.Append(node.Block); err != nil {
				c.log.Warn("appending irreversible block to block log failed", "num", num, "err", err)
			}
		}
	}
	c.forkDB.PruneBelow(candidate)
	c.squashIrreversibleFramesLocked(candidate)
}

// squashIrreversibleFramesLocked folds every retained undo frame at or
// below candidate into committed state: those blocks can no longer be
// popped (I6), so there is no reason to keep their frames distinguishable
// from the root any longer.
func (c *Controller) squashIrreversibleFramesLocked(candidate uint32) {
	cut := 0
	squashID := -1
	for _, bf := range c.blockFrames {
		if bf.num > candidate {
			break
		}
		squashID = bf.id
		cut++
	}
	if squashID < 0 {
		return
	}
	if sq, ok := c.store.(squashable); ok {
		sq.SquashBase(squashID)
	}
	c.blockFrames = c.blockFrames[cut:]
}

// clearExpiredTransactionsLocked drops uniqueness-index entries whose
// expiration has fallen behind head block time; once expired, the
// expiration check alone makes a replay impossible, so the index entry is
// no longer needed (§4.4 stage 1/2 coupling).
func (c *Controller) clearExpiredTransactionsLocked() {
	var stale [][]byte
	c.store.Iterate(prefixRecentTx, func(key, value []byte) bool {
		var exp time.Time
		if err := exp.UnmarshalBinary(value); err == nil && exp.Before(c.dynamic.HeadBlockTime) {
			stale = append(stale, append([]byte{}, key...))
		}
		return true
	})
	for _, key := range stale {
		c.store.Delete(key)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
