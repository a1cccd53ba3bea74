package chaintypes

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountKey_HasAccountPrefix(t *testing.T) {
	key := AccountKey("alice")
	require.True(t, bytes.HasPrefix(key, AccountKeyPrefix()))
	require.Equal(t, "acct/alice", string(key))
}

func TestPermissionKey_CombinesAccountAndPermission(t *testing.T) {
	key := PermissionKey("alice", "active")
	require.Equal(t, "perm/alice/active", string(key))
}

func TestProducerKey_HasProducerPrefix(t *testing.T) {
	key := ProducerKey("alice")
	require.True(t, bytes.HasPrefix(key, ProducerKeyPrefix()))
	require.Equal(t, "prod/alice", string(key))
}

func TestAccountKey_DistinctAccountsProduceDistinctKeys(t *testing.T) {
	require.NotEqual(t, AccountKey("alice"), AccountKey("bob"))
}
