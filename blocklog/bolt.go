package blocklog

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

var blocksBucket = []byte("blocks")

// BoltLog is the default BlockLog adapter: one bbolt bucket, keyed by
// big-endian block number, CBOR-framed values — the same shape as this
// lineage's keyvaluedb/boltdb adapter, specialized to a single
// block-number-keyed bucket instead of a generic key-value store.
type BoltLog struct {
	db *bolt.DB
}

// Open creates or opens a BoltLog at path.
func Open(path string) (*BoltLog, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("blocklog: opening %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blocklog: creating bucket: %w", err)
	}
	return &BoltLog{db: db}, nil
}

func numKey(num uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], num)
	return buf[:]
}

func (l *BoltLog) Append(b *chaintypes.SignedBlock) error {
	data, err := chaintypes.Marshal(b)
	if err != nil {
		return fmt.Errorf("blocklog: marshaling block: %w", err)
	}
	num := b.Header.ParentID.Num() + 1
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(numKey(num), data)
	})
}

func (l *BoltLog) ReadBlock(num uint32) (*chaintypes.SignedBlock, error) {
	var b chaintypes.SignedBlock
	found := false
	err := l.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(numKey(num))
		if data == nil {
			return nil
		}
		found = true
		return chaintypes.Unmarshal(data, &b)
	})
	if err != nil {
		return nil, fmt.Errorf("blocklog: reading block %d: %w", num, err)
	}
	if !found {
		return nil, fmt.Errorf("blocklog: block %d not found", num)
	}
	return &b, nil
}

func (l *BoltLog) Head() uint32 {
	var head uint32
	_ = l.db.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket(blocksBucket).Cursor().Last()
		if k != nil {
			head = binary.BigEndian.Uint32(k)
		}
		return nil
	})
	return head
}

func (l *BoltLog) Close() error {
	return l.db.Close()
}
