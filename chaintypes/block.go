package chaintypes

import (
	"encoding/binary"
	"encoding/hex"
	"time"
)

// BlockID is a 32-byte content hash of a block header. The first four bytes
// encode the block number, big-endian, so that block ids sort (mostly) by
// height and a number can be recovered without a side index.
type BlockID [32]byte

var NullBlockID BlockID

// Num returns the block number encoded in the id's first four bytes.
func (id BlockID) Num() uint32 {
	return binary.BigEndian.Uint32(id[:4])
}

func (id BlockID) IsZero() bool { return id == NullBlockID }

func (id BlockID) String() string { return hex.EncodeToString(id[:]) }

// Less implements the tie-break used for fork-choice: smaller id wins
// between two blocks of equal number.
func (id BlockID) Less(other BlockID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// MakeBlockID builds a BlockID from a block number and the trailing 28 bytes
// of a content digest, following the convention that the number occupies
// the first four bytes.
func MakeBlockID(num uint32, digestTail []byte) BlockID {
	var id BlockID
	binary.BigEndian.PutUint32(id[:4], num)
	n := copy(id[4:], digestTail)
	_ = n
	return id
}

// BlockHeader is the signed, fixed-size portion of a block.
type BlockHeader struct {
	ParentID            BlockID     `cbor:"1,keyasint"`
	Timestamp           time.Time   `cbor:"2,keyasint"`
	Producer            AccountName `cbor:"3,keyasint"`
	TransactionMRoot     []byte      `cbor:"4,keyasint"`
	ProducerChanges     []AccountName `cbor:"5,keyasint,omitempty"`
	ProducerSignature   []byte      `cbor:"6,keyasint"`
}

// SignedBlock is a header plus its ordered transactions.
type SignedBlock struct {
	Header       BlockHeader        `cbor:"1,keyasint"`
	Transactions []*SignedTransaction `cbor:"2,keyasint,omitempty"`
}

func (b *SignedBlock) ParentID() BlockID { return b.Header.ParentID }

func (b *SignedBlock) Num() uint32 {
	// the block's own id embeds its number, but until the block is hashed
	// we only know it relative to its parent.
	return b.Header.ParentID.Num() + 1
}
