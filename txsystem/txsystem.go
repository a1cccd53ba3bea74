// Package txsystem provides the built-in ("native") message handlers every
// chain needs regardless of which application-specific contracts it also
// registers: account creation, permission management and producer
// registration/voting. It is grounded on this lineage's dispatch-by-type
// executor (internal/txsystem), generalized from a map-of-reflect.Type to
// the handler registry's (contract, scope, action) dispatch table.
package txsystem

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/handlers"
)

// SystemContract is the account every native handler in this package is
// registered under.
var SystemContract = mustAccount("system")

func mustAccount(s string) chaintypes.AccountName {
	name, err := chaintypes.NewAccountName(s)
	if err != nil {
		panic(err)
	}
	return name
}

// Action type names dispatched to SystemContract.
const (
	ActionNewAccount     = "newaccount"
	ActionUpdateAuth     = "updateauth"
	ActionRegProducer    = "regproducer"
	ActionVoteProducer   = "voteproducer"
)

// NewAccountPayload creates account Name with its owner and active
// permissions in a single message, mirroring the two-permission bootstrap
// every account needs before it can authorize anything else.
type NewAccountPayload struct {
	Name   chaintypes.AccountName `cbor:"1,keyasint"`
	Owner  chaintypes.Permission  `cbor:"2,keyasint"`
	Active chaintypes.Permission  `cbor:"3,keyasint"`
}

// UpdateAuthPayload replaces one named permission on an account.
type UpdateAuthPayload struct {
	Account    chaintypes.AccountName `cbor:"1,keyasint"`
	Permission chaintypes.Permission  `cbor:"2,keyasint"`
}

// RegProducerPayload registers or updates a producer candidate's signing
// key and configuration vote.
type RegProducerPayload struct {
	Owner      chaintypes.AccountName             `cbor:"1,keyasint"`
	SigningKey []byte                             `cbor:"2,keyasint"`
	Votes      chaintypes.BlockchainConfiguration `cbor:"3,keyasint"`
}

// VoteProducerPayload lets voter update votes_on_configuration without
// touching their signing key (distinct from re-registering).
type VoteProducerPayload struct {
	Owner chaintypes.AccountName             `cbor:"1,keyasint"`
	Votes chaintypes.BlockchainConfiguration `cbor:"2,keyasint"`
}

// ProducerStore is the narrow slice of controller state the producer
// handlers need — registering a producer candidate is more than a single
// store.Put (it also has to go through the controller's own bookkeeping,
// e.g. ensuring the owner account exists), so these handlers depend on
// this interface rather than writing producer records directly.
type ProducerStore interface {
	RegisterProducer(p chaintypes.Producer) error
}

// Register installs every native handler under SystemContract and the
// matching native-type descriptors, so genesis.FileStarter (or any other
// ChainInitializer) can call this once during PrepareDatabase.
func Register(reg *handlers.Registry, producers ProducerStore) {
	reg.RegisterNativeType(SystemContract, ActionNewAccount)
	reg.RegisterNativeType(SystemContract, ActionUpdateAuth)
	reg.RegisterNativeType(SystemContract, ActionRegProducer)
	reg.RegisterNativeType(SystemContract, ActionVoteProducer)

	reg.Register(handlers.Key{Contract: SystemContract, Scope: SystemContract, Action: ActionNewAccount},
		validateNewAccount, preconditionNewAccount, applyNewAccount)
	reg.Register(handlers.Key{Contract: SystemContract, Scope: SystemContract, Action: ActionUpdateAuth},
		validateUpdateAuth, preconditionUpdateAuth, applyUpdateAuth)
	reg.Register(handlers.Key{Contract: SystemContract, Scope: SystemContract, Action: ActionRegProducer},
		validateRegProducer, nil, applyRegProducer(producers))
	reg.Register(handlers.Key{Contract: SystemContract, Scope: SystemContract, Action: ActionVoteProducer},
		validateVoteProducer, preconditionVoteProducer, applyVoteProducer)
}

func validateNewAccount(_ handlers.Context, msg *chaintypes.Message) error {
	var p NewAccountPayload
	if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("newaccount: decoding payload: %w", err)
	}
	if p.Name.IsNull() {
		return fmt.Errorf("newaccount: account name must not be empty")
	}
	if p.Owner.Threshold == 0 || p.Active.Threshold == 0 {
		return fmt.Errorf("newaccount: owner and active permissions must have a nonzero threshold")
	}
	return nil
}

func preconditionNewAccount(ctx handlers.Context, msg *chaintypes.Message) error {
	var p NewAccountPayload
	_ = chaintypes.Unmarshal(msg.Payload, &p)
	if _, ok := ctx.Store().Get(chaintypes.AccountKey(p.Name)); ok {
		return fmt.Errorf("newaccount: account %s already exists", p.Name)
	}
	return nil
}

func applyNewAccount(ctx handlers.Context, msg *chaintypes.Message) error {
	var p NewAccountPayload
	if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
		return err
	}
	acct, err := chaintypes.Marshal(chaintypes.Account{Name: p.Name})
	if err != nil {
		return err
	}
	ctx.Store().Put(chaintypes.AccountKey(p.Name), acct)

	p.Owner.Account, p.Owner.Name = p.Name, mustAccount("owner")
	p.Active.Account, p.Active.Name = p.Name, mustAccount("active")
	for _, perm := range []chaintypes.Permission{p.Owner, p.Active} {
		data, err := chaintypes.Marshal(perm)
		if err != nil {
			return err
		}
		ctx.Store().Put(chaintypes.PermissionKey(p.Name, perm.Name), data)
	}
	return nil
}

func validateUpdateAuth(_ handlers.Context, msg *chaintypes.Message) error {
	var p UpdateAuthPayload
	if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("updateauth: decoding payload: %w", err)
	}
	if p.Permission.Threshold == 0 {
		return fmt.Errorf("updateauth: threshold must be nonzero")
	}
	return nil
}

func preconditionUpdateAuth(ctx handlers.Context, msg *chaintypes.Message) error {
	var p UpdateAuthPayload
	_ = chaintypes.Unmarshal(msg.Payload, &p)
	if _, ok := ctx.Store().Get(chaintypes.AccountKey(p.Account)); !ok {
		return fmt.Errorf("updateauth: unknown account %s", p.Account)
	}
	return nil
}

func applyUpdateAuth(ctx handlers.Context, msg *chaintypes.Message) error {
	var p UpdateAuthPayload
	if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
		return err
	}
	p.Permission.Account = p.Account
	data, err := chaintypes.Marshal(p.Permission)
	if err != nil {
		return err
	}
	ctx.Store().Put(chaintypes.PermissionKey(p.Account, p.Permission.Name), data)
	return nil
}

func validateRegProducer(_ handlers.Context, msg *chaintypes.Message) error {
	var p RegProducerPayload
	if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("regproducer: decoding payload: %w", err)
	}
	if p.Owner.IsNull() || len(p.SigningKey) == 0 {
		return fmt.Errorf("regproducer: owner and signing_key are required")
	}
	return nil
}

func applyRegProducer(producers ProducerStore) handlers.ApplyFunc {
	return func(ctx handlers.Context, msg *chaintypes.Message) error {
		var p RegProducerPayload
		if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		// Re-registering (e.g. to rotate the signing key) must not reset the
		// candidate back to the end of the ranking, so carry over any votes
		// it has already accumulated.
		var totalVotes uint64
		if raw, ok := ctx.Store().Get(chaintypes.ProducerKey(p.Owner)); ok {
			var existing chaintypes.Producer
			if err := chaintypes.Unmarshal(raw, &existing); err == nil {
				totalVotes = existing.TotalVotes
			}
		}
		return producers.RegisterProducer(chaintypes.Producer{
			Owner:                p.Owner,
			SigningKey:           p.SigningKey,
			VotesOnConfiguration: p.Votes,
			TotalVotes:           totalVotes,
		})
	}
}

func validateVoteProducer(_ handlers.Context, msg *chaintypes.Message) error {
	var p VoteProducerPayload
	if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("voteproducer: decoding payload: %w", err)
	}
	if p.Owner.IsNull() {
		return fmt.Errorf("voteproducer: owner is required")
	}
	return nil
}

func preconditionVoteProducer(ctx handlers.Context, msg *chaintypes.Message) error {
	var p VoteProducerPayload
	_ = chaintypes.Unmarshal(msg.Payload, &p)
	if _, ok := ctx.Store().Get(chaintypes.ProducerKey(p.Owner)); !ok {
		return fmt.Errorf("voteproducer: %s is not a registered producer", p.Owner)
	}
	return nil
}

func applyVoteProducer(ctx handlers.Context, msg *chaintypes.Message) error {
	var p VoteProducerPayload
	if err := chaintypes.Unmarshal(msg.Payload, &p); err != nil {
		return err
	}
	raw, ok := ctx.Store().Get(chaintypes.ProducerKey(p.Owner))
	if !ok {
		return fmt.Errorf("voteproducer: %s is not a registered producer", p.Owner)
	}
	var prod chaintypes.Producer
	if err := chaintypes.Unmarshal(raw, &prod); err != nil {
		return err
	}
	prod.VotesOnConfiguration = p.Votes
	// No stake/balance system exists in this tree, so each cast vote counts
	// for one: voteproducer is a plain one-account-one-vote tally that the
	// schedule ranks candidates by (§4.2).
	prod.TotalVotes++
	data, err := chaintypes.Marshal(prod)
	if err != nil {
		return err
	}
	ctx.Store().Put(chaintypes.ProducerKey(p.Owner), data)
	return nil
}
