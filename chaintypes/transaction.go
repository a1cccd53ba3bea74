package chaintypes

import (
	"encoding/binary"
	"encoding/hex"
	"time"
)

// TransactionID is the hash of a transaction's unsigned body.
type TransactionID [32]byte

func (id TransactionID) String() string { return hex.EncodeToString(id[:]) }

func (id TransactionID) IsZero() bool { return id == TransactionID{} }

// TaposPrefix returns bytes 4 through 7 of a block id (the four bytes right
// after the big-endian block number) as a big-endian uint32, used as the
// TAPoS reference prefix embedded in a transaction.
func TaposPrefix(id BlockID) uint32 {
	return binary.BigEndian.Uint32(id[4:8])
}

// Authorization names an account+permission pair that must co-sign a
// transaction for a message referencing it to be considered authorized.
type Authorization struct {
	Account    AccountName `cbor:"1,keyasint"`
	Permission AccountName `cbor:"2,keyasint"`
}

// Message is a single contract invocation within a transaction.
type Message struct {
	SenderAccount    AccountName     `cbor:"1,keyasint"`
	RecipientAccount AccountName     `cbor:"2,keyasint"`
	Scope            AccountName     `cbor:"3,keyasint"`
	TypeName         string          `cbor:"4,keyasint"`
	Payload          []byte          `cbor:"5,keyasint"`
	Authorization    []Authorization `cbor:"6,keyasint,omitempty"`
}

// UnsignedTransaction is the hashed, signed body of a transaction.
type UnsignedTransaction struct {
	RefBlockNum    uint32    `cbor:"1,keyasint"`
	RefBlockPrefix uint32    `cbor:"2,keyasint"`
	Expiration     time.Time `cbor:"3,keyasint"`
	Messages       []Message `cbor:"4,keyasint,omitempty"`
}

// SignedTransaction is a transaction body plus the signatures authorizing
// it.
type SignedTransaction struct {
	Body       UnsignedTransaction `cbor:"1,keyasint"`
	Signatures [][]byte            `cbor:"2,keyasint,omitempty"`
}

func (tx *SignedTransaction) RefBlockNum() uint32    { return tx.Body.RefBlockNum }
func (tx *SignedTransaction) RefBlockPrefix() uint32 { return tx.Body.RefBlockPrefix }
func (tx *SignedTransaction) Expiration() time.Time  { return tx.Body.Expiration }
func (tx *SignedTransaction) Messages() []Message    { return tx.Body.Messages }
