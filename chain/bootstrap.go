package chain

import (
	"fmt"
	"time"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/store"
)

// ChainInitializer is the external genesis/starter collaborator (§4.10):
// it produces the bootstrap messages and starting values a fresh
// controller needs before block 1 can be generated or pushed. The
// interface lives here, not in the genesis package, so genesis can depend
// on chain without chain depending back on genesis.
type ChainInitializer interface {
	PrepareDatabase(c *Controller, s store.Store) ([]chaintypes.Message, error)
	ChainStartTime() time.Time
	ChainStartConfiguration() chaintypes.BlockchainConfiguration
	ChainStartProducers() []chaintypes.AccountName
}

// Bootstrap runs init's bootstrap messages directly through their apply
// handlers, outside the normal transaction pipeline (there is no signer,
// no TAPoS reference and nothing to authorize yet — genesis is trusted by
// construction). The effects land in a block-0 frame that is folded into
// committed state immediately, since genesis is irreversible from the
// start (§4.10).
func (c *Controller) Bootstrap(init ChainInitializer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs, err := init.PrepareDatabase(c, c.store)
	if err != nil {
		return fmt.Errorf("chain: bootstrap: preparing database: %w", err)
	}

	c.sessions.DiscardPending()
	if err := c.sessions.OpenBlock(); err != nil {
		c.sessions.OpenPending()
		return fmt.Errorf("chain: bootstrap: %w", err)
	}

	for i := range msgs {
		msg := &msgs[i]
		key := keyFor(msg)
		_, _, apply, ok := c.registry.Lookup(key)
		if !ok || apply == nil {
			c.sessions.RollbackBlock()
			c.sessions.OpenPending()
			return fmt.Errorf("chain: bootstrap: no apply handler for contract=%s scope=%s action=%s", msg.RecipientAccount, msg.Scope, msg.TypeName)
		}
		ctx := (&deps{c}).NewContext(nil, chaintypes.TransactionID{}, msg)
		if err := apply(ctx, msg); err != nil {
			c.sessions.RollbackBlock()
			c.sessions.OpenPending()
			return fmt.Errorf("chain: bootstrap: applying bootstrap message: %w", err)
		}
	}

	frameID, err := c.sessions.ReleaseBlock()
	if err != nil {
		c.sessions.OpenPending()
		return fmt.Errorf("chain: bootstrap: %w", err)
	}
	if sq, ok := c.store.(squashable); ok {
		sq.SquashBase(frameID)
	}
	c.sessions.OpenPending()
	return nil
}
