// Package genesis provides the reference ChainInitializer (§4.10): a
// starter that reads a human-edited YAML document (via viper, the way
// this lineage's own configuration loading works) for the chain's start
// time, configuration and producer set, and a companion CBOR file for the
// machine-generated bootstrap messages.
package genesis

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/chaincorelabs/dposchain/chain"
	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/handlers"
	"github.com/chaincorelabs/dposchain/store"
	"github.com/chaincorelabs/dposchain/txsystem"
)

// FileStarter implements chain.ChainInitializer by reading two files: a
// YAML genesis document and a CBOR bootstrap-messages file.
type FileStarter struct {
	Registry *handlers.Registry

	startTime    time.Time
	startConfig  chaintypes.BlockchainConfiguration
	producers    []chaintypes.AccountName
	bootstrapMsg []chaintypes.Message
}

// genesisDoc mirrors the YAML document's shape; viper decodes into this
// via UnmarshalKey rather than a bespoke hand-rolled parser.
type genesisDoc struct {
	StartTime  string `mapstructure:"start_time"`
	BlockSize  uint32 `mapstructure:"max_block_size"`
	LifetimeS  int64  `mapstructure:"max_transaction_lifetime_seconds"`
	MaxMsgs    uint32 `mapstructure:"max_messages_per_tx"`
	Producers  []string `mapstructure:"producers"`
}

// Load reads genesisPath (YAML) and bootstrapPath (CBOR-encoded
// []chaintypes.Message) and returns a ready-to-use FileStarter. reg is the
// handler registry the chain controller was (or will be) constructed with;
// Register installs the built-in native handlers into it from
// PrepareDatabase, once the controller itself is available as the
// ProducerStore.
func Load(genesisPath, bootstrapPath string, reg *handlers.Registry) (*FileStarter, error) {
	v := viper.New()
	v.SetConfigFile(genesisPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("genesis: reading %s: %w", genesisPath, err)
	}

	var doc genesisDoc
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("genesis: decoding %s: %w", genesisPath, err)
	}

	startTime, err := time.Parse(time.RFC3339, doc.StartTime)
	if err != nil {
		return nil, fmt.Errorf("genesis: parsing start_time %q: %w", doc.StartTime, err)
	}

	producers := make([]chaintypes.AccountName, 0, len(doc.Producers))
	for _, raw := range doc.Producers {
		name, err := chaintypes.NewAccountName(raw)
		if err != nil {
			return nil, fmt.Errorf("genesis: producer %q: %w", raw, err)
		}
		producers = append(producers, name)
	}

	bootstrapData, err := os.ReadFile(bootstrapPath)
	if err != nil {
		return nil, fmt.Errorf("genesis: reading %s: %w", bootstrapPath, err)
	}
	var msgs []chaintypes.Message
	if len(bootstrapData) > 0 {
		if err := chaintypes.Unmarshal(bootstrapData, &msgs); err != nil {
			return nil, fmt.Errorf("genesis: decoding bootstrap messages from %s: %w", bootstrapPath, err)
		}
	}

	return &FileStarter{
		Registry: reg,
		startTime: startTime,
		startConfig: chaintypes.BlockchainConfiguration{
			MaxBlockSize:           doc.BlockSize,
			MaxTransactionLifetime: time.Duration(doc.LifetimeS) * time.Second,
			MaxMessagesPerTx:       doc.MaxMsgs,
		},
		producers:    producers,
		bootstrapMsg: msgs,
	}, nil
}

// PrepareDatabase installs the built-in native handlers into the registry
// and returns the decoded bootstrap messages (§4.10).
func (f *FileStarter) PrepareDatabase(c *chain.Controller, _ store.Store) ([]chaintypes.Message, error) {
	txsystem.Register(f.Registry, c)
	return f.bootstrapMsg, nil
}

func (f *FileStarter) ChainStartTime() time.Time { return f.startTime }

func (f *FileStarter) ChainStartConfiguration() chaintypes.BlockchainConfiguration {
	return f.startConfig
}

func (f *FileStarter) ChainStartProducers() []chaintypes.AccountName { return f.producers }
