package chain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/blocklog"
	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/crypto"
	"github.com/chaincorelabs/dposchain/handlers"
)

func TestReplay_ReappliesLoggedBlocksOnFreshController(t *testing.T) {
	dir := t.TempDir()
	log, err := blocklog.Open(filepath.Join(dir, "blocks.db"))
	require.NoError(t, err)
	defer log.Close()

	c, keys := newHarnessFull(t, testConfig, log, "alice", "bob")
	pushBlocksThroughRound(t, c, keys)
	require.Greater(t, log.Head(), uint32(0))

	c2, err := New(Config{
		BlockLog:           log,
		Verifier:           crypto.NewVerifier(),
		Registry:           handlers.New(),
		StartTime:          testStartTime,
		StartConfiguration: testConfig,
		StartProducers:     []chaintypes.AccountName{keys[0].name, keys[1].name},
	})
	require.NoError(t, err)
	c2.SetBlockInterval(testBlockInterval)

	init := &testInit{producers: keys, config: testConfig}
	require.NoError(t, c2.Bootstrap(init))

	require.NoError(t, c2.Replay())
	require.Equal(t, log.Head(), c2.HeadBlockNumber())
	require.Equal(t, log.Head(), c2.LastIrreversibleBlockNum())
}
