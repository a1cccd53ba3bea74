package chain

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

// PushTransaction validates tx and, on success, adds it to the pending
// queue on top of the open pending session (§4.8). It reports the error
// synchronously and never affects state on failure (§7).
func (c *Controller) PushTransaction(tx *chaintypes.SignedTransaction) (chaintypes.TransactionID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sessions.OpenTx(); err != nil {
		return chaintypes.TransactionID{}, fmt.Errorf("chain: push_transaction: %w", err)
	}
	id, err := c.applyTransactionLocked(tx, c.skip)
	if err != nil {
		c.sessions.RollbackTx()
		c.log.Warn("push_transaction rejected", "tx", id.String(), "err", err)
		return id, err
	}
	if err := c.sessions.CommitTx(); err != nil {
		return id, fmt.Errorf("chain: push_transaction: committing session: %w", err)
	}

	c.pending.PushBack(&pendingTx{tx: tx, id: id})
	c.emitPendingTransaction(tx)
	return id, nil
}

// pendingSnapshot captures the pending queue's transactions (not the
// store session, which the caller is expected to have already discarded
// or will discard) for WithoutPendingTransactions to restore.
type pendingSnapshot struct {
	txs []*pendingTx
}

func (c *Controller) snapshotPendingLocked() pendingSnapshot {
	snap := pendingSnapshot{txs: make([]*pendingTx, 0, c.pending.Len())}
	for e := c.pending.Front(); e != nil; e = e.Next() {
		snap.txs = append(snap.txs, e.Value.(*pendingTx))
	}
	return snap
}

// restorePendingLocked re-validates and re-queues every transaction from
// snap against the freshly-opened pending session, best-effort: a
// transaction that no longer validates is silently dropped (logged, not
// surfaced, per §7).
func (c *Controller) restorePendingLocked(snap pendingSnapshot) {
	for _, p := range snap.txs {
		if err := c.sessions.OpenTx(); err != nil {
			c.log.Warn("restoring pending transaction: could not open session", "tx", p.id.String(), "err", err)
			continue
		}
		if _, err := c.applyTransactionLocked(p.tx, c.skip); err != nil {
			c.sessions.RollbackTx()
			c.log.Warn("pending transaction dropped on restore: no longer valid", "tx", p.id.String(), "err", err)
			continue
		}
		if err := c.sessions.CommitTx(); err != nil {
			c.log.Warn("restoring pending transaction: commit failed", "tx", p.id.String(), "err", err)
			continue
		}
		c.pending.PushBack(p)
	}
}
