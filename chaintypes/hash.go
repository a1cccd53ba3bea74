package chaintypes

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Errorf("building canonical cbor encoder: %w", err))
	}
	return mode
}()

// Marshal produces the canonical CBOR encoding used for hashing and
// persistence throughout this module.
func Marshal(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// Unmarshal decodes the canonical CBOR encoding produced by Marshal.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// HashTransaction computes a transaction's id as the hash of its unsigned
// body, independent of the signatures that authorize it.
func HashTransaction(tx *SignedTransaction) (TransactionID, error) {
	data, err := Marshal(tx.Body)
	if err != nil {
		return TransactionID{}, fmt.Errorf("marshaling transaction body: %w", err)
	}
	sum := sha256.Sum256(data)
	return TransactionID(sum), nil
}

// HashBlockHeader computes the content-hash tail used to build a BlockID,
// excluding the number that is encoded separately into the id's first four
// bytes.
func HashBlockHeader(h *BlockHeader) ([]byte, error) {
	data, err := Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshaling block header: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// ComputeBlockID derives a block's id from its header alone: the number
// prefix is the parent id's number plus one (so a block whose parent is the
// null id is block 1), and the remaining bytes come from the header hash.
func ComputeBlockID(h *BlockHeader) (BlockID, error) {
	digest, err := HashBlockHeader(h)
	if err != nil {
		return BlockID{}, err
	}
	num := h.ParentID.Num() + 1
	return MakeBlockID(num, digest[4:]), nil
}

// SigningDigest computes the digest a producer signs and a verifier checks:
// the header hash with ProducerSignature cleared, so the signature is never
// computed over itself.
func SigningDigest(h *BlockHeader) ([]byte, error) {
	unsigned := *h
	unsigned.ProducerSignature = nil
	return HashBlockHeader(&unsigned)
}
