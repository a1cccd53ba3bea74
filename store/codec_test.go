package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

func TestPutTypedGetTyped_RoundTrip(t *testing.T) {
	s := NewMemory()
	acct, err := chaintypes.NewAccountName("alice")
	require.NoError(t, err)

	type record struct {
		Owner chaintypes.AccountName
		Count uint64
	}
	want := record{Owner: acct, Count: 7}

	require.NoError(t, PutTyped(s, []byte("k"), want))
	got, ok, err := GetTyped[record](s, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestGetTyped_MissingKey(t *testing.T) {
	s := NewMemory()
	_, ok, err := GetTyped[int](s, []byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}
