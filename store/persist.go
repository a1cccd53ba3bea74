package store

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var persistBucket = []byte("committed")

// PersistentSink mirrors a Memory store's state into a bbolt database,
// following this lineage's keyvaluedb/boltdb pattern, so a process restart
// can recover without replaying the full block log. It is deliberately
// narrow: it has no session concept of its own and writes whatever the
// store's merged view shows, including values inside still-open
// savepoints; limiting it to fully-committed state is up to when the
// caller flushes.
type PersistentSink struct {
	db *bolt.DB
}

// OpenPersistentSink opens (creating if absent) a bbolt file at path.
func OpenPersistentSink(path string) (*PersistentSink, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: opening persistent sink %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(persistBucket)
		return err
	}); err != nil {
		return nil, fmt.Errorf("store: creating persistent sink bucket: %w", err)
	}
	return &PersistentSink{db: db}, nil
}

// Flush writes every key/value pair visible in s (its merged view across
// every open savepoint) into the bbolt file, overwriting stored values for
// those keys. Keys already in the file but absent from s are not removed.
func (p *PersistentSink) Flush(ctx context.Context, s *Memory) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(persistBucket)
		var outerErr error
		s.Iterate(nil, func(key, value []byte) bool {
			if ctx.Err() != nil {
				outerErr = ctx.Err()
				return false
			}
			if err := b.Put(key, value); err != nil {
				outerErr = err
				return false
			}
			return true
		})
		return outerErr
	})
}

// Load reads every persisted key/value pair into dst's committed frame.
// dst must be freshly constructed (no open savepoints, no prior writes).
func (p *PersistentSink) Load(dst *Memory) error {
	return p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(persistBucket)
		return b.ForEach(func(k, v []byte) error {
			dst.Put(append([]byte(nil), k...), append([]byte(nil), v...))
			return nil
		})
	})
}

func (p *PersistentSink) Close() error { return p.db.Close() }
