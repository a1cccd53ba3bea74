package chain

import (
	"time"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/handlers"
	"github.com/chaincorelabs/dposchain/store"
	"github.com/chaincorelabs/dposchain/validation"
)

// validation.Deps is implemented here by a thin adapter rather than by
// Controller itself: every method assumes the caller already holds
// Controller.mu (true for every path that runs the pipeline — push_block
// and push_transaction take the write lock for their whole duration), so
// these must never re-acquire it the way the public accessors do.
type deps struct{ c *Controller }

func (d *deps) HeadBlockTime() time.Time { return d.c.dynamic.HeadBlockTime }

func (d *deps) MaxTransactionLifetime() time.Duration { return d.c.static.MaxTransactionLifetime }

func (d *deps) IsRecentTx(id chaintypes.TransactionID) bool {
	_, ok := d.c.store.Get(recentTxKey(id))
	return ok
}

func (d *deps) RecordRecentTx(id chaintypes.TransactionID, expiration time.Time) {
	buf, _ := expiration.MarshalBinary()
	d.c.store.Put(recentTxKey(id), buf)
}

func (d *deps) BlockSummary(num uint32) (chaintypes.BlockID, bool) {
	return d.c.blockSummaryLocked(num)
}

func (d *deps) AccountExists(name chaintypes.AccountName) bool {
	_, ok := d.c.store.Get(chaintypes.AccountKey(name))
	return ok
}

func (d *deps) Permission(account, permission chaintypes.AccountName) (*chaintypes.Permission, bool) {
	raw, ok := d.c.store.Get(chaintypes.PermissionKey(account, permission))
	if !ok {
		return nil, false
	}
	var p chaintypes.Permission
	if err := chaintypes.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (d *deps) Verifier() chaintypes.Verifier { return d.c.verifier }

func (d *deps) Registry() *handlers.Registry { return d.c.registry }

func (d *deps) NewContext(tx *chaintypes.SignedTransaction, txID chaintypes.TransactionID, msg *chaintypes.Message) handlers.Context {
	return &handlers.BasicContext{
		St:         d.c.store,
		Blk:        d.c.currentBlock,
		Tx:         tx,
		TxID:       txID,
		Msg:        msg,
		At:         d.c.dynamic.HeadBlockTime,
		SkipAssert: d.c.skip.Has(validation.SkipAssertEvaluation),
	}
}

// blockSummaryLocked resolves a recent block number to its id. Caller must
// hold c.mu (read or write).
func (c *Controller) blockSummaryLocked(num uint32) (chaintypes.BlockID, bool) {
	raw, ok := c.store.Get(blockSummaryKey(num))
	if !ok || len(raw) != 32 {
		return chaintypes.BlockID{}, false
	}
	var id chaintypes.BlockID
	copy(id[:], raw)
	return id, true
}

func (c *Controller) putBlockSummaryLocked(num uint32, id chaintypes.BlockID) {
	c.store.Put(blockSummaryKey(num), append([]byte{}, id[:]...))
}

// registerAccountLocked installs an account existence marker (the account
// record only; no permission is written), used for producer registration;
// real account creation normally happens through a native handler's apply
// function instead.
func (c *Controller) registerAccountLocked(name chaintypes.AccountName) error {
	return store.PutTyped(c.store, chaintypes.AccountKey(name), chaintypes.Account{Name: name})
}
