package store

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

// GetTyped decodes the CBOR-encoded value at key into a T, if present.
func GetTyped[T any](s Store, key []byte) (T, bool, error) {
	var zero T
	raw, ok := s.Get(key)
	if !ok {
		return zero, false, nil
	}
	var v T
	if err := chaintypes.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("store: decoding %T at key %q: %w", zero, key, err)
	}
	return v, true, nil
}

// PutTyped CBOR-encodes v and writes it at key.
func PutTyped[T any](s Store, key []byte, v T) error {
	raw, err := chaintypes.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %T for key %q: %w", v, key, err)
	}
	s.Put(key, raw)
	return nil
}
