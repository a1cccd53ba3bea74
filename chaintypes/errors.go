package chaintypes

import "fmt"

// Kind enumerates the exhaustive set of consensus-rule violations the
// controller can report. Every error the controller returns for a rejected
// block or transaction carries one of these.
type Kind int

const (
	KindUnspecified Kind = iota
	KindInvalidBlockHeader
	KindUnknownParent
	KindBadSignature
	KindWrongProducer
	KindBadTimestamp
	KindMerkleMismatch
	KindCheckpointMismatch
	KindDuplicateTransaction
	KindExpiredTransaction
	KindTaposMismatch
	KindUnknownAccount
	KindUnknownMessageType
	KindAuthorityInsufficient
	KindHandlerMissing
	KindHandlerAssert
	KindReorgFailure
	KindIrreversibleViolation
)

func (k Kind) String() string {
	switch k {
	case KindInvalidBlockHeader:
		return "InvalidBlockHeader"
	case KindUnknownParent:
		return "UnknownParent"
	case KindBadSignature:
		return "BadSignature"
	case KindWrongProducer:
		return "WrongProducer"
	case KindBadTimestamp:
		return "BadTimestamp"
	case KindMerkleMismatch:
		return "MerkleMismatch"
	case KindCheckpointMismatch:
		return "CheckpointMismatch"
	case KindDuplicateTransaction:
		return "DuplicateTransaction"
	case KindExpiredTransaction:
		return "ExpiredTransaction"
	case KindTaposMismatch:
		return "TaposMismatch"
	case KindUnknownAccount:
		return "UnknownAccount"
	case KindUnknownMessageType:
		return "UnknownMessageType"
	case KindAuthorityInsufficient:
		return "AuthorityInsufficient"
	case KindHandlerMissing:
		return "HandlerMissing"
	case KindHandlerAssert:
		return "HandlerAssert"
	case KindReorgFailure:
		return "ReorgFailure"
	case KindIrreversibleViolation:
		return "IrreversibleViolation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ChainError is the structured error returned for every rejected block or
// transaction. BlockID/TxID are zero when not applicable.
type ChainError struct {
	Kind    Kind
	BlockID BlockID
	TxID    TransactionID
	Err     error
}

func (e *ChainError) Error() string {
	switch {
	case !e.TxID.IsZero():
		return fmt.Sprintf("%s: tx %s: %v", e.Kind, e.TxID, e.Err)
	case !e.BlockID.IsZero():
		return fmt.Sprintf("%s: block %s: %v", e.Kind, e.BlockID, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *ChainError) Unwrap() error { return e.Err }

// NewBlockError builds a ChainError anchored to a block id.
func NewBlockError(kind Kind, id BlockID, err error) *ChainError {
	return &ChainError{Kind: kind, BlockID: id, Err: err}
}

// NewTxError builds a ChainError anchored to a transaction id.
func NewTxError(kind Kind, id TransactionID, err error) *ChainError {
	return &ChainError{Kind: kind, TxID: id, Err: err}
}

// NewError builds a ChainError with no specific id attached.
func NewError(kind Kind, err error) *ChainError {
	return &ChainError{Kind: kind, Err: err}
}
