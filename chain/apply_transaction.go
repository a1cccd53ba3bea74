package chain

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/validation"
)

// applyTransactionLocked runs the full validation pipeline against tx and,
// on success, invokes every message's apply handler (§4.4, §4.7). Caller
// must already hold c.mu and have a transaction session open; on any
// error the caller is responsible for rolling that session back (§7:
// "any error during _apply_transaction rolls back the transaction's
// session and fails upward").
func (c *Controller) applyTransactionLocked(tx *chaintypes.SignedTransaction, skip validation.SkipFlags) (chaintypes.TransactionID, error) {
	id, err := c.pipeline.Validate(tx, skip)
	if err != nil {
		return id, err
	}
	for i := range tx.Body.Messages {
		msg := &tx.Body.Messages[i]
		key := keyFor(msg)
		_, _, apply, ok := c.registry.Lookup(key)
		if !ok || apply == nil {
			return id, chaintypes.NewTxError(chaintypes.KindHandlerMissing, id, fmt.Errorf("no apply handler for contract=%s scope=%s action=%s", msg.RecipientAccount, msg.Scope, msg.TypeName))
		}
		ctx := (&deps{c}).NewContext(tx, id, msg)
		if err := apply(ctx, msg); err != nil {
			return id, chaintypes.NewTxError(chaintypes.KindHandlerAssert, id, fmt.Errorf("apply: %w", err))
		}
	}
	return id, nil
}
