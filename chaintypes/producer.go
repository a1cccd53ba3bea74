package chaintypes

import "time"

// BlockchainConfiguration holds the mutable consensus parameters derived
// from the median of active producers' votes.
type BlockchainConfiguration struct {
	MaxBlockSize           uint32        `cbor:"1,keyasint"`
	MaxTransactionLifetime time.Duration `cbor:"2,keyasint"`
	MaxMessagesPerTx       uint32        `cbor:"3,keyasint"`
}

// Producer is a registered block-producer candidate.
type Producer struct {
	Owner               AccountName             `cbor:"1,keyasint"`
	SigningKey          []byte                  `cbor:"2,keyasint"`
	VotesOnConfiguration BlockchainConfiguration `cbor:"3,keyasint"`
	TotalVotes          uint64                  `cbor:"4,keyasint"`
	LastProducedBlockNum uint32                 `cbor:"5,keyasint"`
}

// ParticipationWindowSize is the width of the rolling slot-fill bitmap kept
// in the global dynamic properties.
const ParticipationWindowSize = 64

// GlobalDynamicProperties is the mutable, per-block chain head state.
type GlobalDynamicProperties struct {
	HeadBlockID              BlockID
	HeadBlockNumber          uint32
	HeadBlockTime            time.Time
	CurrentProducer          AccountName
	LastIrreversibleBlockNum uint32
	// RecentSlotsFilled is a rolling window of the last ParticipationWindowSize
	// slots, bit i set iff that slot's block was produced. Bit 0 is the most
	// recent slot; the window is exactly one register wide rather than the
	// upstream's separate 128-bit bitmap, see DESIGN.md.
	RecentSlotsFilled uint64
}

// ParticipationRate returns the fraction, in [0,100], of the last
// ParticipationWindowSize slots that were filled. RecentSlotsFilled is
// seeded all-ones at genesis, so a chain that hasn't missed a slot yet
// reads as fully participating rather than climbing up from zero.
func (g *GlobalDynamicProperties) ParticipationRate() uint32 {
	filled := popcount64(g.RecentSlotsFilled)
	return uint32(filled * 100 / ParticipationWindowSize)
}

func popcount64(x uint64) int {
	n := 0
	for x != 0 {
		n += int(x & 1)
		x >>= 1
	}
	return n
}
