// Package store implements the object store session manager's external
// collaborator (§4.5, §4.5.1): a key/value store that supports nested
// savepoints. The controller itself (§1) never assumes a concrete
// representation — this package is the domain-stack's default adapter,
// not a requirement the core imposes on callers.
package store

// Store is the nested-savepoint key/value surface the session manager
// (package session) and controller consume. Savepoint opens a new frame;
// Commit merges a frame into its parent; Rollback discards it. Both are
// required to be O(delta), never O(state size) (§9).
type Store interface {
	Get(key []byte) ([]byte, bool)
	Put(key, value []byte)
	Delete(key []byte)

	// Iterate calls fn for every key with the given prefix, in ascending
	// key order, over the store's current visible view (committed state
	// plus every open savepoint). Iteration stops early if fn returns
	// false.
	Iterate(prefix []byte, fn func(key, value []byte) bool)

	// Savepoint opens a new nested frame and returns its id.
	Savepoint() int
	// Commit merges the frame identified by id into its parent and
	// discards it. id must be the most recently opened, still-open
	// savepoint (sessions nest in LIFO order).
	Commit(id int)
	// Rollback discards the frame identified by id without merging it.
	Rollback(id int)
}
