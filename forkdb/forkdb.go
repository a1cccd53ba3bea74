// Package forkdb implements the fork database (§4.6): an in-memory tree of
// known blocks, indexed by id, that tracks the longest-chain head and
// answers least-common-ancestor queries for reorg planning. It never
// touches the object store; it is purely in-memory metadata (§3 Fork
// node), realized as an arena keyed by block id rather than as
// parent-owned child pointers (§9), which avoids any ownership-cycle
// question.
package forkdb

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

// Node is one fork-tree entry (§3 Fork node).
type Node struct {
	Block           *chaintypes.SignedBlock
	ID              chaintypes.BlockID
	ParentID        chaintypes.BlockID
	Num             uint32
	Validated       bool
	Invalid         bool
	InCurrentBranch bool
}

// ForkDB is the arena-plus-index described in §9: nodes live in a map
// keyed by id, with a secondary index by block number for the LCA walk.
type ForkDB struct {
	byID  map[chaintypes.BlockID]*Node
	byNum map[uint32][]chaintypes.BlockID
	head  chaintypes.BlockID
}

// New builds an empty ForkDB rooted (conceptually) at the given last
// irreversible block id/num, which is recorded as an already-validated,
// in-current-branch anchor node with no block payload, so LCA walks have
// somewhere to terminate.
func New(rootID chaintypes.BlockID, rootNum uint32) *ForkDB {
	f := &ForkDB{
		byID:  make(map[chaintypes.BlockID]*Node),
		byNum: make(map[uint32][]chaintypes.BlockID),
	}
	root := &Node{ID: rootID, Num: rootNum, Validated: true, InCurrentBranch: true}
	f.byID[rootID] = root
	f.byNum[rootNum] = append(f.byNum[rootNum], rootID)
	f.head = rootID
	return f
}

// Get returns the node for id, if known.
func (f *ForkDB) Get(id chaintypes.BlockID) (*Node, bool) {
	n, ok := f.byID[id]
	return n, ok
}

// Head returns the current best node: greatest block number among
// non-invalid forks, ties broken by smallest id (I3). A node that has not
// been validated yet can be head; it stops being head once MarkInvalid is
// called on it.
func (f *ForkDB) Head() *Node {
	return f.byID[f.head]
}

// Add inserts b into the tree and recomputes head if b's node now wins.
// Returns the new node and whether it was newly inserted (false if id was
// already known).
func (f *ForkDB) Add(id chaintypes.BlockID, b *chaintypes.SignedBlock) (*Node, bool) {
	if n, ok := f.byID[id]; ok {
		return n, false
	}
	parentID := b.ParentID()
	n := &Node{
		Block:    b,
		ID:       id,
		ParentID: parentID,
		Num:      id.Num(),
	}
	f.byID[id] = n
	f.byNum[n.Num] = append(f.byNum[n.Num], id)
	f.maybeAdvanceHead(n)
	return n, true
}

// maybeAdvanceHead updates the tracked head if n beats it under I3's
// ordering: greatest number, ties broken by smallest id. Invalid nodes
// never become head; the Validated flag is not consulted.
func (f *ForkDB) maybeAdvanceHead(n *Node) {
	if n.Invalid {
		return
	}
	cur := f.byID[f.head]
	if cur == nil {
		f.head = n.ID
		return
	}
	if n.Num > cur.Num || (n.Num == cur.Num && n.ID.Less(cur.ID)) {
		f.head = n.ID
	}
}

// MarkValidated records that n passed block-header/transaction validation.
// Called once a block is actually applied (validation is lazy for blocks
// not on the winning branch, §3 Lifecycle).
func (f *ForkDB) MarkValidated(id chaintypes.BlockID) {
	if n, ok := f.byID[id]; ok {
		n.Validated = true
	}
}

// MarkInvalid records that n failed validation and re-evaluates head,
// since an invalid node can never win fork choice even if it has the
// greatest number.
func (f *ForkDB) MarkInvalid(id chaintypes.BlockID) {
	n, ok := f.byID[id]
	if !ok {
		return
	}
	n.Invalid = true
	n.InCurrentBranch = false
	if id == f.head {
		f.recomputeHead()
	}
}

// SetCurrentBranch flags id's membership in the current best branch (I2).
func (f *ForkDB) SetCurrentBranch(id chaintypes.BlockID, inBranch bool) {
	if n, ok := f.byID[id]; ok {
		n.InCurrentBranch = inBranch
	}
}

// recomputeHead scans every known node for the new winner under I3. Called
// only when the previous head is invalidated or removed, which is rare
// relative to the common Add-only path maybeAdvanceHead handles.
func (f *ForkDB) recomputeHead() {
	var best *Node
	for _, n := range f.byID {
		if n.Invalid {
			continue
		}
		if best == nil || n.Num > best.Num || (n.Num == best.Num && n.ID.Less(best.ID)) {
			best = n
		}
	}
	if best != nil {
		f.head = best.ID
	} else {
		f.head = chaintypes.BlockID{}
	}
}

// Remove prunes id and its entire descendant subtree from the tree. Used
// both when a fork loses out permanently and when blocks fall out of the
// irreversible window (the block log retains them on disk; the fork db
// does not need to).
func (f *ForkDB) Remove(id chaintypes.BlockID) {
	children := f.childrenOf(id)
	for _, c := range children {
		f.Remove(c)
	}
	if n, ok := f.byID[id]; ok {
		ids := f.byNum[n.Num]
		for i, x := range ids {
			if x == id {
				f.byNum[n.Num] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		delete(f.byID, id)
	}
}

func (f *ForkDB) childrenOf(id chaintypes.BlockID) []chaintypes.BlockID {
	var out []chaintypes.BlockID
	for _, n := range f.byID {
		if n.ParentID == id {
			out = append(out, n.ID)
		}
	}
	return out
}

// PruneBelow removes every node with a block number strictly less than
// num, keeping the node at exactly num as the new root anchor. Called once
// last_irreversible_block_num advances.
func (f *ForkDB) PruneBelow(num uint32) {
	for n, ids := range f.byNum {
		if n >= num {
			continue
		}
		for _, id := range ids {
			delete(f.byID, id)
		}
		delete(f.byNum, n)
	}
}

// FetchBranchFrom returns the path from a up to (not including) the least
// common ancestor, and the path from b up to (not including) the LCA,
// both ordered tip-to-LCA, by walking the shorter chain until the numbers
// match and then both chains together until the ids converge (§4.6).
func (f *ForkDB) FetchBranchFrom(a, b chaintypes.BlockID) (fromA, fromB []*Node, err error) {
	na, ok := f.byID[a]
	if !ok {
		return nil, nil, fmt.Errorf("forkdb: unknown block %s", a)
	}
	nb, ok := f.byID[b]
	if !ok {
		return nil, nil, fmt.Errorf("forkdb: unknown block %s", b)
	}

	for na.Num > nb.Num {
		fromA = append(fromA, na)
		na, ok = f.byID[na.ParentID]
		if !ok {
			return nil, nil, fmt.Errorf("forkdb: walked off tree before reaching LCA from %s", a)
		}
	}
	for nb.Num > na.Num {
		fromB = append(fromB, nb)
		nb, ok = f.byID[nb.ParentID]
		if !ok {
			return nil, nil, fmt.Errorf("forkdb: walked off tree before reaching LCA from %s", b)
		}
	}
	for na.ID != nb.ID {
		fromA = append(fromA, na)
		fromB = append(fromB, nb)
		na, ok = f.byID[na.ParentID]
		if !ok {
			return nil, nil, fmt.Errorf("forkdb: no common ancestor for %s and %s", a, b)
		}
		nb, ok = f.byID[nb.ParentID]
		if !ok {
			return nil, nil, fmt.Errorf("forkdb: no common ancestor for %s and %s", a, b)
		}
	}
	return fromA, fromB, nil
}
