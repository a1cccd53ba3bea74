// Package validation implements the transaction validation pipeline
// (§4.4): staged, skippable checks run on every transaction in strict
// order.
package validation

// SkipFlags is the validation skip bitmask (§6), used to accelerate replay
// and trust-local operations such as re-applying the block log.
type SkipFlags uint16

const (
	SkipProducerSignature SkipFlags = 1 << iota
	SkipTransactionSignatures
	SkipTransactionDupeCheck
	SkipForkDB
	SkipBlockSizeCheck
	SkipTaposCheck
	SkipAuthorityCheck
	SkipMerkleCheck
	SkipAssertEvaluation
	SkipUndoHistoryCheck
	SkipProducerScheduleCheck
	SkipValidate
)

// ReplaySkip is the flag set the block log's linear replay uses: the log
// only ever holds blocks that were already validated once when they were
// first applied, so producer/transaction signatures, TAPoS, authority and
// merkle checks are all redundant, and the undo-history window no longer
// applies to known-good history (§4.9).
const ReplaySkip = SkipProducerSignature | SkipTransactionSignatures | SkipTaposCheck |
	SkipAuthorityCheck | SkipUndoHistoryCheck | SkipMerkleCheck

// Has reports whether bit is set in f.
func (f SkipFlags) Has(bit SkipFlags) bool { return f&bit != 0 }
