package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/handlers"
	"github.com/chaincorelabs/dposchain/store"
	"github.com/chaincorelabs/dposchain/txsystem"
)

func TestBootstrap_CreatesAccountsAndRegistersProducers(t *testing.T) {
	c, keys := newHarness(t, "alice", "bob")

	_, ok := c.store.Get(chaintypes.AccountKey(txsystem.SystemContract))
	require.True(t, ok)

	for _, p := range keys {
		_, ok := c.store.Get(chaintypes.AccountKey(p.name))
		require.True(t, ok)

		prod, ok := c.producerLocked(p.name)
		require.True(t, ok)
		require.Equal(t, p.signer.PublicKey(), prod.SigningKey)
	}
}

func TestBootstrap_FoldsGenesisIntoCommittedStateImmediately(t *testing.T) {
	c, _ := newHarness(t, "alice", "bob")
	require.Empty(t, c.blockFrames)
	require.True(t, c.sessions.PendingOpen())
}

type missingHandlerInit struct{}

func (missingHandlerInit) PrepareDatabase(_ *Controller, _ store.Store) ([]chaintypes.Message, error) {
	return []chaintypes.Message{{
		RecipientAccount: txsystem.SystemContract,
		Scope:            txsystem.SystemContract,
		TypeName:         "nope",
	}}, nil
}

func (missingHandlerInit) ChainStartTime() time.Time { return testStartTime }

func (missingHandlerInit) ChainStartConfiguration() chaintypes.BlockchainConfiguration {
	return testConfig
}

func (missingHandlerInit) ChainStartProducers() []chaintypes.AccountName { return nil }

func TestBootstrap_FailsAndReopensPendingWhenHandlerMissing(t *testing.T) {
	c, err := New(Config{Registry: handlers.New(), StartTime: testStartTime})
	require.NoError(t, err)

	err = c.Bootstrap(missingHandlerInit{})
	require.Error(t, err)
	require.True(t, c.sessions.PendingOpen())
}
