// Package blocklog implements the durable, append-only log of irreversible
// blocks (§4.9): the on-disk history a fresh controller replays to rebuild
// state without needing the whole fork db, grounded on this lineage's
// bbolt key-value adapter (keyvaluedb/boltdb).
package blocklog

import "github.com/chaincorelabs/dposchain/chaintypes"

// BlockLog is append-only, keyed by block number, and never rewrites or
// deletes an entry once written — it only ever grows as blocks become
// irreversible.
type BlockLog interface {
	// Append writes b under its own block number. Callers only ever append
	// once a block is irreversible, so out-of-order or duplicate appends
	// are a caller bug rather than something the log needs to guard
	// against.
	Append(b *chaintypes.SignedBlock) error
	ReadBlock(num uint32) (*chaintypes.SignedBlock, error)
	// Head returns the highest block number written, or 0 if the log is
	// empty.
	Head() uint32
	Close() error
}
