package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/validation"
)

func TestWithSkipFlags_RestoresPriorValue(t *testing.T) {
	c, _ := newHarness(t, "alice", "bob")
	require.Equal(t, validation.SkipFlags(0), c.SkipFlags())

	restore := c.WithSkipFlags(validation.SkipMerkleCheck)
	require.Equal(t, validation.SkipMerkleCheck, c.SkipFlags())

	restore()
	require.Equal(t, validation.SkipFlags(0), c.SkipFlags())
}

func TestWithProducing_RestoresPriorValue(t *testing.T) {
	c, _ := newHarness(t, "alice", "bob")
	require.False(t, c.IsProducing())

	restore := c.WithProducing(true)
	require.True(t, c.IsProducing())

	restore()
	require.False(t, c.IsProducing())
}

func TestWithoutPendingTransactions_RequeuesOnRestore(t *testing.T) {
	c, keys := newHarness(t, "alice", "bob")
	_, err := c.GenerateBlock(testStartTime.Add(testBlockInterval), keys[0].name, keys[0].signer, 0)
	require.NoError(t, err)

	msg := freshAccountMsg(t, "queued")
	tx := signedTx(t, c, []chaintypes.Message{msg}, nil)
	_, err = c.PushTransaction(tx)
	require.NoError(t, err)
	require.Equal(t, 1, c.pending.Len())

	restore := c.WithoutPendingTransactions()
	require.Equal(t, 0, c.pending.Len())

	restore()
	require.Equal(t, 1, c.pending.Len())
}
