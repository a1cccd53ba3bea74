package handlers

import (
	"time"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/store"
)

// Context is what a handler sees when invoked: read access to the store
// (and, for apply, write access through the same Store — the session the
// context is built over is already the correctly-scoped nested savepoint),
// plus the identity of the block/transaction/message currently executing.
type Context interface {
	Store() store.Store
	Block() *chaintypes.SignedBlock
	Transaction() *chaintypes.SignedTransaction
	TransactionID() chaintypes.TransactionID
	Message() *chaintypes.Message
	Now() time.Time
	SkipAssertEvaluation() bool
}

// BasicContext is the straightforward Context implementation the
// controller builds for each message dispatch.
type BasicContext struct {
	St          store.Store
	Blk         *chaintypes.SignedBlock
	Tx          *chaintypes.SignedTransaction
	TxID        chaintypes.TransactionID
	Msg         *chaintypes.Message
	At          time.Time
	SkipAssert  bool
}

func (c *BasicContext) Store() store.Store                            { return c.St }
func (c *BasicContext) Block() *chaintypes.SignedBlock                { return c.Blk }
func (c *BasicContext) Transaction() *chaintypes.SignedTransaction    { return c.Tx }
func (c *BasicContext) TransactionID() chaintypes.TransactionID       { return c.TxID }
func (c *BasicContext) Message() *chaintypes.Message                  { return c.Msg }
func (c *BasicContext) Now() time.Time                                { return c.At }
func (c *BasicContext) SkipAssertEvaluation() bool                    { return c.SkipAssert }
