// Package handlers implements the pluggable message-handler dispatch
// table (§4.3): three parallel maps keyed by (contract, scope, action)
// mapping to validate / precondition-validate / apply callables. Handlers
// carry no state of their own across invocations (§9); everything they
// need comes through the Context passed at call time.
package handlers

import (
	"sync"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

// Key identifies one registered handler triple.
type Key struct {
	Contract chaintypes.AccountName
	Scope    chaintypes.AccountName
	Action   string
}

// ValidateFunc performs a stateless structural check of a message's
// payload.
type ValidateFunc func(ctx Context, msg *chaintypes.Message) error

// PreconditionFunc performs a read-only check against current database
// state.
type PreconditionFunc func(ctx Context, msg *chaintypes.Message) error

// ApplyFunc performs the mutating effect of a message on the database.
type ApplyFunc func(ctx Context, msg *chaintypes.Message) error

// entry is one registered handler triple. All three are optional at the
// type level but validation treats a missing apply handler the same as a
// wholly-unregistered key (HandlerMissing).
type entry struct {
	validate     ValidateFunc
	precondition PreconditionFunc
	apply        ApplyFunc
}

// NativeTypeDescriptor records the type-schema binding for a native
// (built-in) message type, consulted by the validation pipeline's
// message-type stage (§4.4 stage 5). BaseScope answers Open Question (a)
// in SPEC_FULL.md §9: whether registering a native type should also set
// its base_scope so base-type lookups fall back correctly. This repo
// surfaces it as an explicit field rather than leaving it implicit;
// RegisterNativeType leaves it as the null account (i.e. no fallback)
// unless the caller opts in through SetBaseScopeOnRegister, which sets it
// to the type's own Scope.
type NativeTypeDescriptor struct {
	Scope     chaintypes.AccountName
	TypeName  string
	BaseScope chaintypes.AccountName
}

// Registry is the three-map dispatch table described in §4.3.
type Registry struct {
	mu          sync.RWMutex
	entries     map[Key]entry
	nativeTypes map[string]NativeTypeDescriptor

	// SetBaseScopeOnRegister controls RegisterNativeType's default for
	// BaseScope when the caller doesn't supply one explicitly: if true,
	// base_scope is set to the type's own scope (self-referential, the
	// behavior implementors following the upstream TODO verbatim would
	// get); if false (the default here), BaseScope is left as the null
	// account, meaning "no base-scope fallback".
	SetBaseScopeOnRegister bool
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{
		entries:     make(map[Key]entry),
		nativeTypes: make(map[string]NativeTypeDescriptor),
	}
}

// Register installs (or replaces) the validate/precondition/apply triple
// for key. Any of the three may be nil; Lookup reports nil callables as-is
// so callers can distinguish "no check needed" from "no handler at all".
func (r *Registry) Register(key Key, validate ValidateFunc, precondition PreconditionFunc, apply ApplyFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = entry{validate: validate, precondition: precondition, apply: apply}
}

// Lookup resolves key, falling back to the wildcard contract
// (chaintypes.NullAccount) with the same scope/action if no exact match
// exists. ok is false only when neither the exact key nor its wildcard
// fallback is registered.
func (r *Registry) Lookup(key Key) (validate ValidateFunc, precondition PreconditionFunc, apply ApplyFunc, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, found := r.entries[key]; found {
		return e.validate, e.precondition, e.apply, true
	}
	wildcard := Key{Contract: chaintypes.NullAccount, Scope: key.Scope, Action: key.Action}
	if e, found := r.entries[wildcard]; found {
		return e.validate, e.precondition, e.apply, true
	}
	return nil, nil, nil, false
}

// RegisterNativeType records the type-schema descriptor for a built-in
// message type so the validation pipeline's message-type stage can
// resolve type_name to a payload layout. If baseScope is not supplied and
// SetBaseScopeOnRegister is true, it defaults to scope.
func (r *Registry) RegisterNativeType(scope chaintypes.AccountName, typeName string, baseScope ...chaintypes.AccountName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := NativeTypeDescriptor{Scope: scope, TypeName: typeName}
	switch {
	case len(baseScope) > 0:
		d.BaseScope = baseScope[0]
	case r.SetBaseScopeOnRegister:
		d.BaseScope = scope
	}
	r.nativeTypes[typeName] = d
}

// NativeType resolves a declared type_name to its descriptor.
func (r *Registry) NativeType(typeName string) (NativeTypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.nativeTypes[typeName]
	return d, ok
}
