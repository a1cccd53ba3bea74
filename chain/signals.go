package chain

import "github.com/chaincorelabs/dposchain/chaintypes"

// OnAppliedBlock subscribes fn to the applied_block signal (§6). Signal
// callbacks run under the controller's write lock; they may read but must
// never call back into a mutating controller operation (§5 Reentrancy) —
// violating that is the callback's bug, not defended against here.
func (c *Controller) OnAppliedBlock(fn func(*chaintypes.SignedBlock)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appliedBlockSubs = append(c.appliedBlockSubs, fn)
}

// OnPendingTransaction subscribes fn to the on_pending_transaction signal.
func (c *Controller) OnPendingTransaction(fn func(*chaintypes.SignedTransaction)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingTxSubs = append(c.pendingTxSubs, fn)
}

func (c *Controller) emitAppliedBlock(b *chaintypes.SignedBlock) {
	for _, fn := range c.appliedBlockSubs {
		fn(b)
	}
}

func (c *Controller) emitPendingTransaction(tx *chaintypes.SignedTransaction) {
	for _, fn := range c.pendingTxSubs {
		fn(tx)
	}
}
