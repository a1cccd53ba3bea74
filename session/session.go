// Package session implements the object store session manager (§4.5): the
// thin layer that opens, commits and rolls back nested savepoints on the
// store for each transaction and each block, enforcing the invariant that
// exactly one block session is open while applying a block, one
// transaction session nests inside it per transaction, and one pending
// session is open at all other times.
package session

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/store"
)

// Manager owns the session-discipline state machine described in §4.5 and
// the invariant I4 ("the open pending savepoint exists iff the controller
// is not mid-block-apply and not mid-reorg").
type Manager struct {
	store store.Store

	pendingID   int
	pendingOpen bool

	blockID   int
	blockOpen bool

	txID   int
	txOpen bool
}

// New builds a Manager over s with its pending session already open, as
// I4 requires at construction time.
func New(s store.Store) *Manager {
	m := &Manager{store: s}
	m.OpenPending()
	return m
}

func (m *Manager) Store() store.Store { return m.store }

// OpenPending opens the pending session. Panics if one is already open or
// a block session is in progress — both are programmer errors, not
// reachable through the controller's public API under correct use.
func (m *Manager) OpenPending() {
	if m.pendingOpen {
		panic("session: pending session already open")
	}
	if m.blockOpen {
		panic("session: cannot open a pending session while a block session is open")
	}
	m.pendingID = m.store.Savepoint()
	m.pendingOpen = true
}

// DiscardPending rolls back and closes the pending session, if one is
// open. Used by clear_pending and before opening a block session.
func (m *Manager) DiscardPending() {
	if !m.pendingOpen {
		return
	}
	m.store.Rollback(m.pendingID)
	m.pendingOpen = false
}

func (m *Manager) PendingOpen() bool { return m.pendingOpen }

// OpenBlock opens the block session. The pending session must already be
// closed (typically via DiscardPending): a block and the pending queue
// never coexist as open savepoints (I4).
func (m *Manager) OpenBlock() error {
	if m.pendingOpen {
		return fmt.Errorf("session: pending session must be discarded before opening a block session")
	}
	if m.blockOpen {
		return fmt.Errorf("session: block session already open")
	}
	m.blockID = m.store.Savepoint()
	m.blockOpen = true
	return nil
}

// ReleaseBlock closes the block session WITHOUT merging it into its
// parent, returning the frame's stable store id. Unlike a transaction
// session, a block's frame stays retained on the store's savepoint stack
// after release — it must remain individually poppable until the chain
// controller folds it into committed state once the block becomes
// irreversible (store.Memory.SquashBase). The Manager only tracks
// whether a block session is *currently open*; the controller owns the
// returned id for as long as the block might still be popped.
func (m *Manager) ReleaseBlock() (int, error) {
	if !m.blockOpen {
		return 0, fmt.Errorf("session: no block session open to release")
	}
	if m.txOpen {
		return 0, fmt.Errorf("session: cannot release block session with a transaction session still open")
	}
	id := m.blockID
	m.blockOpen = false
	return id, nil
}

// RollbackBlock discards the block session without merging it.
func (m *Manager) RollbackBlock() {
	if m.txOpen {
		m.store.Rollback(m.txID)
		m.txOpen = false
	}
	if !m.blockOpen {
		return
	}
	m.store.Rollback(m.blockID)
	m.blockOpen = false
}

// OpenTx opens a transaction session nested inside whichever outer
// session is currently open — the block session while a block is being
// applied, or the pending session otherwise (§4.5: "one transaction
// session nested inside it per transaction"). Savepoints are LIFO on the
// store, so it makes no difference to commit/rollback which outer session
// a transaction session nests inside; this only validates that exactly
// one outer session is open, per I4.
func (m *Manager) OpenTx() error {
	if !m.blockOpen && !m.pendingOpen {
		return fmt.Errorf("session: cannot open a transaction session without an open block or pending session")
	}
	if m.txOpen {
		return fmt.Errorf("session: transaction session already open")
	}
	m.txID = m.store.Savepoint()
	m.txOpen = true
	return nil
}

// CommitTx merges the transaction session into the outer session it nests
// inside (the block session or the pending session).
func (m *Manager) CommitTx() error {
	if !m.txOpen {
		return fmt.Errorf("session: no transaction session open to commit")
	}
	m.store.Commit(m.txID)
	m.txOpen = false
	return nil
}

// RollbackTx discards the transaction session without merging it.
func (m *Manager) RollbackTx() {
	if !m.txOpen {
		return
	}
	m.store.Rollback(m.txID)
	m.txOpen = false
}
