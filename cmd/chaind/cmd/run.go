package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaincorelabs/dposchain/blocklog"
	"github.com/chaincorelabs/dposchain/chain"
	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/crypto"
	"github.com/chaincorelabs/dposchain/genesis"
	"github.com/chaincorelabs/dposchain/handlers"
	"github.com/chaincorelabs/dposchain/observability"
	"github.com/chaincorelabs/dposchain/store"
)

type runConfiguration struct {
	base *baseConfiguration

	DataDir       string
	GenesisFile   string
	BootstrapFile string
	Producer      string
	BlockInterval time.Duration
}

func newRunCmd(base *baseConfiguration) *cobra.Command {
	cfg := &runConfiguration{base: base}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs a chaind node from a genesis document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.DataDir, "datadir", "", "directory for the node's block log, store and key file (default: $home/data)")
	cmd.Flags().StringVar(&cfg.GenesisFile, "genesis", "", "path to the genesis YAML document")
	cmd.Flags().StringVar(&cfg.BootstrapFile, "bootstrap", "", "path to the CBOR-encoded bootstrap messages file")
	cmd.Flags().StringVar(&cfg.Producer, "producer", "", "account name this node produces blocks for; empty means follower-only")
	cmd.Flags().DurationVar(&cfg.BlockInterval, "block-interval", 5*time.Second, "slot duration between blocks")
	return cmd
}

func runNode(ctx context.Context, cfg *runConfiguration) error {
	log := cfg.base.log
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(cfg.base.HomeDir, "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	statePath := filepath.Join(dataDir, "state.db")
	_, statErr := os.Stat(statePath)
	fresh := os.IsNotExist(statErr)

	blog, err := blocklog.Open(filepath.Join(dataDir, "blocks.db"))
	if err != nil {
		return fmt.Errorf("opening block log: %w", err)
	}
	defer blog.Close()

	sink, err := store.OpenPersistentSink(statePath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer sink.Close()

	mem := store.NewMemory()
	if !fresh {
		if err := sink.Load(mem); err != nil {
			return fmt.Errorf("loading persisted state: %w", err)
		}
	}

	registry := handlers.New()
	starter, err := genesis.Load(cfg.GenesisFile, cfg.BootstrapFile, registry)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	obs := observability.NewNop(log)
	ctrl, err := chain.New(chain.Config{
		Store:              mem,
		BlockLog:           blog,
		Verifier:           crypto.NewVerifier(),
		Registry:           registry,
		Observability:      obs,
		StartTime:          starter.ChainStartTime(),
		StartConfiguration: starter.ChainStartConfiguration(),
		StartProducers:     starter.ChainStartProducers(),
	})
	if err != nil {
		return fmt.Errorf("constructing controller: %w", err)
	}
	ctrl.SetBlockInterval(cfg.BlockInterval)

	if fresh {
		if err := ctrl.Bootstrap(starter); err != nil {
			return fmt.Errorf("bootstrapping chain: %w", err)
		}
		log.Info("bootstrapped fresh chain")
	}
	if err := ctrl.Replay(); err != nil {
		return fmt.Errorf("replaying block log: %w", err)
	}
	log.Info("node started", "head_block_num", ctrl.HeadBlockNumber(), "head_block_id", ctrl.HeadBlockID().String())

	flush := func() {
		if err := sink.Flush(ctx, mem); err != nil {
			log.Warn("flushing persisted state failed", "err", err)
		}
	}
	ctrl.OnAppliedBlock(func(b *chaintypes.SignedBlock) {
		log.Info("applied_block", "num", b.Header.ParentID.Num()+1, "producer", b.Header.Producer.String())
		flush()
	})
	defer flush()

	var signer *crypto.InMemorySigner
	var producer chaintypes.AccountName
	if cfg.Producer != "" {
		producer, err = chaintypes.NewAccountName(cfg.Producer)
		if err != nil {
			return fmt.Errorf("invalid producer account %q: %w", cfg.Producer, err)
		}
		signer, err = loadOrGenerateSigner(filepath.Join(dataDir, "producer.key"))
		if err != nil {
			return fmt.Errorf("loading producer key: %w", err)
		}
		log.Info("producing for account", "producer", producer.String())
	}

	return runProductionLoop(ctx, log, ctrl, producer, signer, cfg.BlockInterval)
}

// runProductionLoop ticks once per block interval and generates a block
// whenever the schedule names the local producer for that slot, skipping
// any slot already produced (§4.11: "a simple local production loop").
func runProductionLoop(ctx context.Context, log interface {
	Info(string, ...any)
	Warn(string, ...any)
}, ctrl *chain.Controller, producer chaintypes.AccountName, signer *crypto.InMemorySigner, interval time.Duration) error {
	if producer.IsNull() {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSlot time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			scheduled, slotTime := ctrl.ScheduledProducerAt(now)
			if scheduled != producer || slotTime.Equal(lastSlot) {
				continue
			}
			lastSlot = slotTime
			if _, err := ctrl.GenerateBlock(slotTime, producer, signer, ctrl.SkipFlags()); err != nil {
				log.Warn("generate_block failed", "err", err)
			}
		}
	}
}
