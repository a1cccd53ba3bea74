package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

func acct(t *testing.T, s string) chaintypes.AccountName {
	t.Helper()
	a, err := chaintypes.NewAccountName(s)
	require.NoError(t, err)
	return a
}

func TestLookup_MissingKeyReturnsNotOK(t *testing.T) {
	r := New()
	_, _, _, ok := r.Lookup(Key{Contract: acct(t, "eosio"), Scope: acct(t, "eosio"), Action: "transfer"})
	require.False(t, ok)
}

func TestLookup_ExactMatch(t *testing.T) {
	r := New()
	key := Key{Contract: acct(t, "eosio"), Scope: acct(t, "eosio"), Action: "transfer"}
	called := false
	r.Register(key, nil, nil, func(ctx Context, msg *chaintypes.Message) error {
		called = true
		return nil
	})

	_, _, apply, ok := r.Lookup(key)
	require.True(t, ok)
	require.NoError(t, apply(nil, nil))
	require.True(t, called)
}

func TestLookup_FallsBackToWildcardContract(t *testing.T) {
	r := New()
	scope := acct(t, "token")
	wildcard := Key{Contract: chaintypes.NullAccount, Scope: scope, Action: "transfer"}
	r.Register(wildcard, nil, nil, func(ctx Context, msg *chaintypes.Message) error { return nil })

	specific := Key{Contract: acct(t, "usdtoken"), Scope: scope, Action: "transfer"}
	_, _, apply, ok := r.Lookup(specific)
	require.True(t, ok)
	require.NotNil(t, apply)
}

func TestLookup_ExactMatchTakesPrecedenceOverWildcard(t *testing.T) {
	r := New()
	scope := acct(t, "token")
	contract := acct(t, "usdtoken")

	wildcardCalled, exactCalled := false, false
	r.Register(Key{Contract: chaintypes.NullAccount, Scope: scope, Action: "transfer"}, nil, nil,
		func(ctx Context, msg *chaintypes.Message) error { wildcardCalled = true; return nil })
	r.Register(Key{Contract: contract, Scope: scope, Action: "transfer"}, nil, nil,
		func(ctx Context, msg *chaintypes.Message) error { exactCalled = true; return nil })

	_, _, apply, ok := r.Lookup(Key{Contract: contract, Scope: scope, Action: "transfer"})
	require.True(t, ok)
	require.NoError(t, apply(nil, nil))
	require.True(t, exactCalled)
	require.False(t, wildcardCalled)
}

func TestRegisterNativeType_DefaultsBaseScopeToNull(t *testing.T) {
	r := New()
	r.RegisterNativeType(acct(t, "eosio"), "transfer")

	d, ok := r.NativeType("transfer")
	require.True(t, ok)
	require.Equal(t, chaintypes.NullAccount, d.BaseScope)
}

func TestRegisterNativeType_SetBaseScopeOnRegisterOptIn(t *testing.T) {
	r := New()
	r.SetBaseScopeOnRegister = true
	r.RegisterNativeType(acct(t, "eosio"), "transfer")

	d, ok := r.NativeType("transfer")
	require.True(t, ok)
	require.Equal(t, acct(t, "eosio"), d.BaseScope)
}

func TestRegisterNativeType_ExplicitBaseScopeOverridesDefault(t *testing.T) {
	r := New()
	r.SetBaseScopeOnRegister = true
	r.RegisterNativeType(acct(t, "eosio"), "transfer", acct(t, "other"))

	d, ok := r.NativeType("transfer")
	require.True(t, ok)
	require.Equal(t, acct(t, "other"), d.BaseScope)
}

func TestNativeType_UnknownTypeNotOK(t *testing.T) {
	r := New()
	_, ok := r.NativeType("nosuchtype")
	require.False(t, ok)
}
