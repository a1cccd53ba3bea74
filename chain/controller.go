// Package chain implements the chain controller (§1, §4.7, §4.8): the
// block/transaction ingestion pipeline, fork-choice and reorganization
// machinery, and the public façade a node process drives. It composes
// every lower-level package in this module (slot, schedule, handlers,
// validation, session, forkdb, store, blocklog) under the single-writer
// invariant described in §5.
package chain

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/chaincorelabs/dposchain/blocklog"
	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/forkdb"
	"github.com/chaincorelabs/dposchain/handlers"
	"github.com/chaincorelabs/dposchain/observability"
	"github.com/chaincorelabs/dposchain/schedule"
	"github.com/chaincorelabs/dposchain/session"
	"github.com/chaincorelabs/dposchain/slot"
	"github.com/chaincorelabs/dposchain/store"
	"github.com/chaincorelabs/dposchain/validation"
)

// Config bundles the construction-time dependencies and parameters a
// Controller needs. Everything here is either an external collaborator
// (§1: Store, BlockLog, Verifier) or a genesis-derived starting value.
type Config struct {
	Store         store.Store
	BlockLog      blocklog.BlockLog
	Verifier      chaintypes.Verifier
	Registry      *handlers.Registry
	Observability observability.Observability

	StartTime          time.Time
	StartConfiguration chaintypes.BlockchainConfiguration
	StartProducers     []chaintypes.AccountName
}

// Controller is the chain controller façade (§4.8).
type Controller struct {
	mu sync.RWMutex

	store    store.Store
	sessions *session.Manager
	blockLog blocklog.BlockLog
	verifier chaintypes.Verifier
	registry *handlers.Registry
	forkDB   *forkdb.ForkDB
	schedule *schedule.Schedule
	slotCalc slot.Calculus
	pipeline *validation.Pipeline

	dynamic      chaintypes.GlobalDynamicProperties
	static       chaintypes.BlockchainConfiguration
	currentBlock *chaintypes.SignedBlock // block currently being applied, nil otherwise

	// pending is the FIFO queue of transactions accepted into the pending
	// session but not yet part of an applied block (§3 Pending state).
	pending *list.List // of *pendingTx

	// blockFrames is the undo stack for applied-but-still-reversible
	// blocks, oldest first: each entry's store frame is retained (not
	// merged) until update_last_irreversible_block squashes it, so
	// pop_block can always discard the most recent one by id.
	blockFrames []blockFrame

	skip      validation.SkipFlags
	producing bool

	checkpoints map[uint32]chaintypes.BlockID

	appliedBlockSubs []func(*chaintypes.SignedBlock)
	pendingTxSubs    []func(*chaintypes.SignedTransaction)

	log    *slog.Logger
	tracer trace.Tracer
}

type pendingTx struct {
	tx *chaintypes.SignedTransaction
	id chaintypes.TransactionID
}

// blockFrame is one entry in the undo stack described above.
type blockFrame struct {
	id            int
	num           uint32
	blockID       chaintypes.BlockID
	priorDynamic  chaintypes.GlobalDynamicProperties
}

// squashable is implemented by store adapters that can fold a contiguous
// run of retained undo frames into committed state (store.Memory does;
// an adapter without the capability just keeps every frame forever,
// which is correct, only less compact).
type squashable interface {
	SquashBase(id int)
}

// New constructs a Controller and initializes block 0 via cfg's genesis
// values. cfg.Registry must already have every native handler and type
// the genesis's bootstrap messages require registered (the external
// ChainInitializer's responsibility, §4.10).
func New(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}
	if cfg.Registry == nil {
		cfg.Registry = handlers.New()
	}
	obs := cfg.Observability
	if obs == nil {
		obs = observability.NewNop(nil)
	}

	c := &Controller{
		store:       cfg.Store,
		sessions:    session.New(cfg.Store),
		blockLog:    cfg.BlockLog,
		verifier:    cfg.Verifier,
		registry:    cfg.Registry,
		schedule:    schedule.New(cfg.StartProducers),
		slotCalc:    slot.New(5 * time.Second),
		pending:     list.New(),
		checkpoints: make(map[uint32]chaintypes.BlockID),
		static:      cfg.StartConfiguration,
		log:         obs.Logger(),
		tracer:      obs.Tracer("dposchain/chain"),
	}
	c.pipeline = validation.New(&deps{c})

	c.dynamic = chaintypes.GlobalDynamicProperties{
		HeadBlockTime: cfg.StartTime,
		// Seed all-ones so a freshly started chain reports 100% participation
		// until slots actually get missed, rather than climbing up from 0.
		RecentSlotsFilled: ^uint64(0),
	}
	c.forkDB = forkdb.New(chaintypes.NullBlockID, 0)

	for _, name := range cfg.StartProducers {
		if err := c.registerAccountLocked(name); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SetBlockInterval overrides the slot calculus's block interval; genesis
// starters call this with the chain-start configuration's interval before
// any block is applied.
func (c *Controller) SetBlockInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slotCalc = slot.New(d)
}

// --- read accessors (§5: safe concurrently with each other, not with writers) ---

func (c *Controller) HeadBlockID() chaintypes.BlockID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dynamic.HeadBlockID
}

func (c *Controller) HeadBlockNumber() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dynamic.HeadBlockNumber
}

func (c *Controller) HeadBlockTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dynamic.HeadBlockTime
}

func (c *Controller) LastIrreversibleBlockNum() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dynamic.LastIrreversibleBlockNum
}

func (c *Controller) GlobalDynamicProperties() chaintypes.GlobalDynamicProperties {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dynamic
}

func (c *Controller) GlobalStaticProperties() chaintypes.BlockchainConfiguration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.static
}

// ScheduledProducerAt returns whichever producer's turn it is at the slot
// containing when, relative to the current head block time, and that
// slot's own aligned timestamp (§4.1, §4.2). A production loop calls this
// on each tick to decide whether it is the local node's turn to produce.
func (c *Controller) ScheduledProducerAt(when time.Time) (chaintypes.AccountName, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	slotNum := c.slotCalc.SlotAt(c.dynamic.HeadBlockTime, when)
	if slotNum == 0 {
		return chaintypes.NullAccount, time.Time{}
	}
	return c.schedule.ScheduledProducer(slotNum), c.slotCalc.SlotTime(c.dynamic.HeadBlockTime, slotNum)
}

// FetchBlockByNumber resolves a recent block's id to its summary entry and
// returns the block itself if the fork db still holds it. It returns nil,
// false both when the number has no summary entry and when the fork db no
// longer holds the block (irreversible blocks past the fork db's window are
// fetched via the block log instead, see FetchBlockFromLog).
func (c *Controller) FetchBlockByNumber(num uint32) (*chaintypes.SignedBlock, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.blockSummaryLocked(num)
	if !ok {
		return nil, false
	}
	n, ok := c.forkDB.Get(id)
	if !ok || n.Block == nil {
		return nil, false
	}
	return n.Block, true
}

func (c *Controller) FetchBlockByID(id chaintypes.BlockID) (*chaintypes.SignedBlock, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.forkDB.Get(id)
	if !ok {
		return nil, false
	}
	return n.Block, n.Block != nil
}

// FetchBlockFromLog reads an irreversible block directly from the block
// log, for heights that have already been pruned from the fork db.
func (c *Controller) FetchBlockFromLog(num uint32) (*chaintypes.SignedBlock, error) {
	if c.blockLog == nil {
		return nil, fmt.Errorf("chain: no block log configured")
	}
	return c.blockLog.ReadBlock(num)
}

// IsProducing reports whether the controller is currently inside
// GenerateBlock (used by handler authors who want to branch on "am I
// producing or merely validating" — read-only, never mutates).
func (c *Controller) IsProducing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.producing
}

func (c *Controller) SkipFlags() validation.SkipFlags {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.skip
}

func (c *Controller) Registry() *handlers.Registry { return c.registry }

func (c *Controller) Schedule() *schedule.Schedule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schedule
}

// ClearPending discards the pending session and empties the queue (§4.8).
func (c *Controller) ClearPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearPendingLocked()
}

func (c *Controller) clearPendingLocked() {
	c.sessions.DiscardPending()
	c.pending.Init()
	c.sessions.OpenPending()
}
