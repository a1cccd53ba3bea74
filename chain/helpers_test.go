package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/blocklog"
	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/crypto"
	"github.com/chaincorelabs/dposchain/handlers"
	"github.com/chaincorelabs/dposchain/store"
	"github.com/chaincorelabs/dposchain/txsystem"
)

var testStartTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

const testBlockInterval = time.Second

var testConfig = chaintypes.BlockchainConfiguration{
	MaxBlockSize:           1 << 20,
	MaxTransactionLifetime: time.Hour,
	MaxMessagesPerTx:       16,
}

// testProducer pairs an account name with the secp256k1 signer a test
// harness registers it under.
type testProducer struct {
	name   chaintypes.AccountName
	signer *crypto.InMemorySigner
}

// testInit is a minimal ChainInitializer: its bootstrap messages create the
// "system" account itself (referencedAccounts needs it to exist, since
// every native handler dispatches to it) plus one account and producer
// registration per entry in producers.
type testInit struct {
	producers []testProducer
	config    chaintypes.BlockchainConfiguration
}

func (ti *testInit) PrepareDatabase(c *Controller, _ store.Store) ([]chaintypes.Message, error) {
	txsystem.Register(c.registry, c)

	systemPerm := chaintypes.Permission{Threshold: 1}
	systemMsg, err := newAccountMessage(txsystem.SystemContract, systemPerm)
	if err != nil {
		return nil, err
	}
	msgs := []chaintypes.Message{systemMsg}

	for _, p := range ti.producers {
		perm := chaintypes.Permission{
			Threshold: 1,
			Keys:      []chaintypes.KeyWeight{{Key: p.signer.PublicKey(), Weight: 1}},
		}
		acctMsg, err := newAccountMessage(p.name, perm)
		if err != nil {
			return nil, err
		}
		prodMsg, err := regProducerMessage(p, ti.config)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, acctMsg, prodMsg)
	}
	return msgs, nil
}

func (ti *testInit) ChainStartTime() time.Time { return testStartTime }

func (ti *testInit) ChainStartConfiguration() chaintypes.BlockchainConfiguration { return ti.config }

func (ti *testInit) ChainStartProducers() []chaintypes.AccountName {
	names := make([]chaintypes.AccountName, len(ti.producers))
	for i, p := range ti.producers {
		names[i] = p.name
	}
	return names
}

func newAccountMessage(name chaintypes.AccountName, perm chaintypes.Permission) (chaintypes.Message, error) {
	payload := txsystem.NewAccountPayload{Name: name, Owner: perm, Active: perm}
	data, err := chaintypes.Marshal(payload)
	if err != nil {
		return chaintypes.Message{}, err
	}
	return chaintypes.Message{
		RecipientAccount: txsystem.SystemContract,
		Scope:            txsystem.SystemContract,
		TypeName:         txsystem.ActionNewAccount,
		Payload:          data,
	}, nil
}

func regProducerMessage(p testProducer, cfg chaintypes.BlockchainConfiguration) (chaintypes.Message, error) {
	payload := txsystem.RegProducerPayload{Owner: p.name, SigningKey: p.signer.PublicKey(), Votes: cfg}
	data, err := chaintypes.Marshal(payload)
	if err != nil {
		return chaintypes.Message{}, err
	}
	return chaintypes.Message{
		RecipientAccount: txsystem.SystemContract,
		Scope:            txsystem.SystemContract,
		TypeName:         txsystem.ActionRegProducer,
		Payload:          data,
	}, nil
}

// newHarnessFull builds a fully bootstrapped Controller with one producer
// per name in names, optionally backed by log (nil for an in-memory-only
// controller).
func newHarnessFull(t *testing.T, cfg chaintypes.BlockchainConfiguration, log blocklog.BlockLog, names ...string) (*Controller, []testProducer) {
	t.Helper()
	var producers []testProducer
	for _, n := range names {
		name, err := chaintypes.NewAccountName(n)
		require.NoError(t, err)
		signer, err := crypto.NewSigner()
		require.NoError(t, err)
		producers = append(producers, testProducer{name: name, signer: signer})
	}

	init := &testInit{producers: producers, config: cfg}

	c, err := New(Config{
		BlockLog:           log,
		Verifier:           crypto.NewVerifier(),
		Registry:           handlers.New(),
		StartTime:          testStartTime,
		StartConfiguration: cfg,
		StartProducers:     init.ChainStartProducers(),
	})
	require.NoError(t, err)
	c.SetBlockInterval(testBlockInterval)

	require.NoError(t, c.Bootstrap(init))
	return c, producers
}

func newHarnessWithConfig(t *testing.T, cfg chaintypes.BlockchainConfiguration, names ...string) (*Controller, []testProducer) {
	return newHarnessFull(t, cfg, nil, names...)
}

func newHarness(t *testing.T, names ...string) (*Controller, []testProducer) {
	return newHarnessWithConfig(t, testConfig, names...)
}

func mustAccountName(t *testing.T, s string) chaintypes.AccountName {
	t.Helper()
	n, err := chaintypes.NewAccountName(s)
	require.NoError(t, err)
	return n
}

// freshAccountMsg builds a newaccount message for a brand-new account with
// no authorization requirement, the simplest message a test can push
// without needing to sign over any permission.
func freshAccountMsg(t *testing.T, name string) chaintypes.Message {
	t.Helper()
	acct := mustAccountName(t, name)
	perm := chaintypes.Permission{
		Threshold: 1,
		Keys:      []chaintypes.KeyWeight{{Key: []byte{0x01}, Weight: 1}},
	}
	msg, err := newAccountMessage(acct, perm)
	require.NoError(t, err)
	return msg
}

// voteProducerMsg builds a voteproducer message authorized by actor's
// active permission.
func voteProducerMsg(t *testing.T, actor testProducer, votes chaintypes.BlockchainConfiguration) chaintypes.Message {
	t.Helper()
	payload := txsystem.VoteProducerPayload{Owner: actor.name, Votes: votes}
	data, err := chaintypes.Marshal(payload)
	require.NoError(t, err)
	return chaintypes.Message{
		SenderAccount:    actor.name,
		RecipientAccount: txsystem.SystemContract,
		Scope:            txsystem.SystemContract,
		TypeName:         txsystem.ActionVoteProducer,
		Payload:          data,
		Authorization:    []chaintypes.Authorization{{Account: actor.name, Permission: mustAccountName(t, "active")}},
	}
}

// signedTx wraps msgs into a transaction referencing c's current head for
// TAPoS, optionally signed by signer (nil leaves it unsigned, valid only
// when none of msgs carries an Authorization entry).
func signedTx(t *testing.T, c *Controller, msgs []chaintypes.Message, signer *crypto.InMemorySigner) *chaintypes.SignedTransaction {
	t.Helper()
	head := c.HeadBlockID()
	body := chaintypes.UnsignedTransaction{
		RefBlockNum:    head.Num(),
		RefBlockPrefix: chaintypes.TaposPrefix(head),
		Expiration:     c.HeadBlockTime().Add(time.Minute),
		Messages:       msgs,
	}
	tx := &chaintypes.SignedTransaction{Body: body}
	if signer == nil {
		return tx
	}
	id, err := chaintypes.HashTransaction(tx)
	require.NoError(t, err)
	sig, err := signer.Sign(id[:])
	require.NoError(t, err)
	tx.Signatures = [][]byte{sig}
	return tx
}

// buildSignedBlock builds and signs a complete block header over parent,
// with a correctly-computed transaction Merkle root.
func buildSignedBlock(t *testing.T, parent chaintypes.BlockID, producer testProducer, timestamp time.Time, txs []*chaintypes.SignedTransaction) *chaintypes.SignedBlock {
	t.Helper()
	ids := make([]chaintypes.TransactionID, len(txs))
	for i, tx := range txs {
		id, err := chaintypes.HashTransaction(tx)
		require.NoError(t, err)
		ids[i] = id
	}
	header := chaintypes.BlockHeader{
		ParentID:         parent,
		Timestamp:        timestamp,
		Producer:         producer.name,
		TransactionMRoot: chaintypes.TransactionMerkleRoot(ids),
	}
	digest, err := chaintypes.SigningDigest(&header)
	require.NoError(t, err)
	sig, err := producer.signer.Sign(digest)
	require.NoError(t, err)
	header.ProducerSignature = sig
	return &chaintypes.SignedBlock{Header: header, Transactions: txs}
}

func requireKind(t *testing.T, err error, kind chaintypes.Kind) {
	t.Helper()
	require.Error(t, err)
	var ce *chaintypes.ChainError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, kind, ce.Kind)
}
