package validation

import (
	"fmt"
	"time"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/handlers"
)

// Deps is the narrow slice of controller state the pipeline needs. The
// controller implements it directly; tests can fake it.
type Deps interface {
	HeadBlockTime() time.Time
	MaxTransactionLifetime() time.Duration

	// IsRecentTx reports whether id is already present in the
	// recent-transactions uniqueness index (§4.4 stage 2).
	IsRecentTx(id chaintypes.TransactionID) bool
	// RecordRecentTx adds id to the uniqueness index, remembered until
	// expiration falls out of the max-lifetime window.
	RecordRecentTx(id chaintypes.TransactionID, expiration time.Time)

	// BlockSummary resolves a recent block number to its id, for the
	// TAPoS check (§4.4 stage 3).
	BlockSummary(num uint32) (chaintypes.BlockID, bool)

	// AccountExists answers the referenced-accounts check (§4.4 stage 4).
	AccountExists(name chaintypes.AccountName) bool

	// Permission resolves a named permission for the authority check
	// (§4.4 stage 6).
	Permission(account, permission chaintypes.AccountName) (*chaintypes.Permission, bool)

	// Verifier exposes the external signature-recovery primitive used by
	// the authority check.
	Verifier() chaintypes.Verifier

	Registry() *handlers.Registry

	// NewContext builds the handlers.Context a per-message validate,
	// precondition or apply callable sees.
	NewContext(tx *chaintypes.SignedTransaction, txID chaintypes.TransactionID, msg *chaintypes.Message) handlers.Context
}

// Pipeline runs the staged transaction checks of §4.4 in strict order.
type Pipeline struct {
	deps Deps
}

// New builds a Pipeline over deps.
func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Validate runs every stage of §4.4 against tx, honoring skip. It has no
// side effect beyond populating the recent-transactions index on success
// (§4.4 closing paragraph); on any failure it
// returns immediately with no index mutation, so the caller's enclosing
// transaction session rollback is sufficient to restore pre-state (P3).
func (p *Pipeline) Validate(tx *chaintypes.SignedTransaction, skip SkipFlags) (chaintypes.TransactionID, error) {
	id, err := chaintypes.HashTransaction(tx)
	if err != nil {
		return chaintypes.TransactionID{}, chaintypes.NewError(chaintypes.KindInvalidBlockHeader, fmt.Errorf("hashing transaction: %w", err))
	}

	if !skip.Has(SkipTaposCheck) {
		if err := p.validateExpiration(tx, id); err != nil {
			return id, err
		}
	}
	if !skip.Has(SkipTransactionDupeCheck) {
		if err := p.validateUniqueness(id); err != nil {
			return id, err
		}
	}
	if !skip.Has(SkipTaposCheck) {
		if err := p.validateTapos(tx, id); err != nil {
			return id, err
		}
	}
	if err := p.validateReferencedAccounts(tx, id); err != nil {
		return id, err
	}
	if err := p.validateMessageTypes(tx, id); err != nil {
		return id, err
	}
	if !skip.Has(SkipAuthorityCheck) {
		if err := p.authorityCheck(tx, id, skip); err != nil {
			return id, err
		}
	}
	if err := p.runMessageHandlers(tx, id, skip); err != nil {
		return id, err
	}

	p.deps.RecordRecentTx(id, tx.Expiration())
	return id, nil
}

// validateExpiration is §4.4 stage 1. Disabling the TAPoS check also
// disables this stage, per the tapos_check row (bit 5) of the skip-bitmask
// table in SPEC_FULL.md §6.
func (p *Pipeline) validateExpiration(tx *chaintypes.SignedTransaction, id chaintypes.TransactionID) error {
	head := p.deps.HeadBlockTime()
	exp := tx.Expiration()
	if !exp.After(head) {
		return chaintypes.NewTxError(chaintypes.KindExpiredTransaction, id, fmt.Errorf("expiration %s is not after head block time %s", exp, head))
	}
	if exp.After(head.Add(p.deps.MaxTransactionLifetime())) {
		return chaintypes.NewTxError(chaintypes.KindExpiredTransaction, id, fmt.Errorf("expiration %s exceeds max transaction lifetime from head %s", exp, head))
	}
	return nil
}

// validateUniqueness is §4.4 stage 2.
func (p *Pipeline) validateUniqueness(id chaintypes.TransactionID) error {
	if p.deps.IsRecentTx(id) {
		return chaintypes.NewTxError(chaintypes.KindDuplicateTransaction, id, fmt.Errorf("transaction already applied within the recent-transactions window"))
	}
	return nil
}

// validateTapos is §4.4 stage 3.
func (p *Pipeline) validateTapos(tx *chaintypes.SignedTransaction, id chaintypes.TransactionID) error {
	refID, ok := p.deps.BlockSummary(tx.RefBlockNum())
	if !ok {
		return chaintypes.NewTxError(chaintypes.KindTaposMismatch, id, fmt.Errorf("ref_block_num %d not found in recent-block summary", tx.RefBlockNum()))
	}
	if chaintypes.TaposPrefix(refID) != tx.RefBlockPrefix() {
		return chaintypes.NewTxError(chaintypes.KindTaposMismatch, id, fmt.Errorf("ref_block_prefix mismatch for block %d", tx.RefBlockNum()))
	}
	return nil
}

// validateReferencedAccounts is §4.4 stage 4.
func (p *Pipeline) validateReferencedAccounts(tx *chaintypes.SignedTransaction, id chaintypes.TransactionID) error {
	seen := make(map[chaintypes.AccountName]struct{})
	check := func(name chaintypes.AccountName) error {
		if name.IsNull() {
			return nil
		}
		if _, ok := seen[name]; ok {
			return nil
		}
		seen[name] = struct{}{}
		if !p.deps.AccountExists(name) {
			return chaintypes.NewTxError(chaintypes.KindUnknownAccount, id, fmt.Errorf("unknown account %q", name))
		}
		return nil
	}
	for _, msg := range tx.Messages() {
		if err := check(msg.SenderAccount); err != nil {
			return err
		}
		if err := check(msg.RecipientAccount); err != nil {
			return err
		}
		if err := check(msg.Scope); err != nil {
			return err
		}
		for _, auth := range msg.Authorization {
			if err := check(auth.Account); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateMessageTypes is §4.4 stage 5: each message's declared type_name
// must resolve to a registered native-type descriptor.
func (p *Pipeline) validateMessageTypes(tx *chaintypes.SignedTransaction, id chaintypes.TransactionID) error {
	for _, msg := range tx.Messages() {
		if _, ok := p.deps.Registry().NativeType(msg.TypeName); !ok {
			return chaintypes.NewTxError(chaintypes.KindUnknownMessageType, id, fmt.Errorf("unknown message type %q", msg.TypeName))
		}
	}
	return nil
}

// authorityCheck is §4.4 stage 6: recover each signature's signing key
// once (cached for the rest of this call) and confirm the recovered keys
// satisfy every authorization's named permission threshold. id is already
// the sha256 digest of the marshaled body (chaintypes.HashTransaction), so
// it doubles as the signing digest rather than re-deriving one.
func (p *Pipeline) authorityCheck(tx *chaintypes.SignedTransaction, id chaintypes.TransactionID, skip SkipFlags) error {
	if skip.Has(SkipTransactionSignatures) {
		return nil
	}
	digest := id[:]

	verifier := p.deps.Verifier()
	recovered := make(map[int][]byte, len(tx.Signatures))
	for i, sig := range tx.Signatures {
		key, err := verifier.RecoverKey(digest, sig)
		if err != nil {
			return chaintypes.NewTxError(chaintypes.KindBadSignature, id, fmt.Errorf("recovering key for signature %d: %w", i, err))
		}
		recovered[i] = key
	}

	required := make(map[chaintypes.Authorization]struct{})
	for _, msg := range tx.Messages() {
		for _, auth := range msg.Authorization {
			required[auth] = struct{}{}
		}
	}
	for auth := range required {
		if err := p.satisfiesAuthority(auth, recovered, make(map[chaintypes.AccountName]struct{})); err != nil {
			return chaintypes.NewTxError(chaintypes.KindAuthorityInsufficient, id, err)
		}
	}
	return nil
}

// satisfiesAuthority walks auth's permission graph, summing key weights
// from recovered signatures plus recursively-satisfied sub-permissions,
// and compares the total against the permission's threshold. visiting
// guards against cycles in the (caller-controlled) permission graph.
func (p *Pipeline) satisfiesAuthority(auth chaintypes.Authorization, recovered map[int][]byte, visiting map[chaintypes.AccountName]struct{}) error {
	key := auth.Account
	if _, cyclic := visiting[key]; cyclic {
		return fmt.Errorf("permission graph cycle at %s/%s", auth.Account, auth.Permission)
	}
	visiting[key] = struct{}{}

	perm, ok := p.deps.Permission(auth.Account, auth.Permission)
	if !ok {
		return fmt.Errorf("account %s has no permission named %q", auth.Account, auth.Permission)
	}

	var total uint32
	for _, kw := range perm.Keys {
		for _, rk := range recovered {
			if bytesEqual(rk, kw.Key) {
				total += uint32(kw.Weight)
				break
			}
		}
	}
	for _, aw := range perm.Accounts {
		sub := chaintypes.Authorization{Account: aw.Account, Permission: aw.Permission}
		if err := p.satisfiesAuthority(sub, recovered, visiting); err == nil {
			total += uint32(aw.Weight)
		}
	}
	if total < perm.Threshold {
		return fmt.Errorf("permission %s/%s requires weight %d, got %d", auth.Account, auth.Permission, perm.Threshold, total)
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runMessageHandlers is §4.4 stage 7: per message, invoke the registered
// validate handler (unless skipped) and then the precondition_validate
// handler. Any failure aborts the whole transaction.
func (p *Pipeline) runMessageHandlers(tx *chaintypes.SignedTransaction, id chaintypes.TransactionID, skip SkipFlags) error {
	for i := range tx.Body.Messages {
		msg := &tx.Body.Messages[i]
		key := handlers.Key{Contract: msg.RecipientAccount, Scope: msg.Scope, Action: msg.TypeName}
		validate, precondition, apply, ok := p.deps.Registry().Lookup(key)
		if !ok || apply == nil {
			return chaintypes.NewTxError(chaintypes.KindHandlerMissing, id, fmt.Errorf("no handler registered for contract=%s scope=%s action=%s", msg.RecipientAccount, msg.Scope, msg.TypeName))
		}
		ctx := p.deps.NewContext(tx, id, msg)
		if !skip.Has(SkipValidate) && validate != nil {
			if err := validate(ctx, msg); err != nil {
				return chaintypes.NewTxError(chaintypes.KindHandlerAssert, id, fmt.Errorf("validate: %w", err))
			}
		}
		if precondition != nil {
			if err := precondition(ctx, msg); err != nil {
				return chaintypes.NewTxError(chaintypes.KindHandlerAssert, id, fmt.Errorf("precondition_validate: %w", err))
			}
		}
	}
	return nil
}
