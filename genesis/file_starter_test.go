package genesis

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chain"
	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/handlers"
)

const genesisYAML = `
start_time: "2026-01-01T00:00:00Z"
max_block_size: 1048576
max_transaction_lifetime_seconds: 3600
max_messages_per_tx: 16
producers:
  - alice
  - bob
`

func writeGenesisFiles(t *testing.T, bootstrap []chaintypes.Message) (genesisPath, bootstrapPath string) {
	t.Helper()
	dir := t.TempDir()
	genesisPath = filepath.Join(dir, "genesis.yaml")
	require.NoError(t, os.WriteFile(genesisPath, []byte(genesisYAML), 0600))

	data, err := chaintypes.Marshal(bootstrap)
	require.NoError(t, err)
	bootstrapPath = filepath.Join(dir, "bootstrap.cbor")
	require.NoError(t, os.WriteFile(bootstrapPath, data, 0600))
	return genesisPath, bootstrapPath
}

func TestLoad_ParsesDocument(t *testing.T) {
	genesisPath, bootstrapPath := writeGenesisFiles(t, nil)
	reg := handlers.New()

	s, err := Load(genesisPath, bootstrapPath, reg)
	require.NoError(t, err)

	require.True(t, s.ChainStartTime().Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, uint32(1048576), s.ChainStartConfiguration().MaxBlockSize)
	require.Equal(t, time.Hour, s.ChainStartConfiguration().MaxTransactionLifetime)
	require.Equal(t, uint32(16), s.ChainStartConfiguration().MaxMessagesPerTx)

	alice, err := chaintypes.NewAccountName("alice")
	require.NoError(t, err)
	bob, err := chaintypes.NewAccountName("bob")
	require.NoError(t, err)
	require.Equal(t, []chaintypes.AccountName{alice, bob}, s.ChainStartProducers())
}

func TestLoad_RejectsInvalidProducerName(t *testing.T) {
	dir := t.TempDir()
	genesisPath := filepath.Join(dir, "genesis.yaml")
	require.NoError(t, os.WriteFile(genesisPath, []byte(`
start_time: "2026-01-01T00:00:00Z"
producers:
  - "Not Valid!"
`), 0600))
	bootstrapPath := filepath.Join(dir, "bootstrap.cbor")
	require.NoError(t, os.WriteFile(bootstrapPath, nil, 0600))

	_, err := Load(genesisPath, bootstrapPath, handlers.New())
	require.Error(t, err)
}

func TestPrepareDatabase_RegistersNativeHandlersAndReturnsBootstrap(t *testing.T) {
	bootstrapMsgs := []chaintypes.Message{{TypeName: "newaccount"}}
	genesisPath, bootstrapPath := writeGenesisFiles(t, bootstrapMsgs)
	reg := handlers.New()

	s, err := Load(genesisPath, bootstrapPath, reg)
	require.NoError(t, err)

	ctrl, err := chain.New(chain.Config{Registry: reg})
	require.NoError(t, err)

	msgs, err := s.PrepareDatabase(ctrl, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	_, _, apply, ok := reg.Lookup(handlers.Key{
		Contract: mustAccount(t, "system"),
		Scope:    mustAccount(t, "system"),
		Action:   "newaccount",
	})
	require.True(t, ok)
	require.NotNil(t, apply)
}

func mustAccount(t *testing.T, s string) chaintypes.AccountName {
	t.Helper()
	a, err := chaintypes.NewAccountName(s)
	require.NoError(t, err)
	return a
}
