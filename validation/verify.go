package validation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

// VerifyBatch offloads transaction-signature recovery to a worker pool,
// for callers who want to pay that cost before calling push_transaction
// (§5: "signature verification may be offloaded to a worker pool by the
// caller ... the controller itself does not yield"). It recovers every
// signature's key for every transaction in parallel and returns the first
// error reported; that error cancels the shared context, so transactions
// still being checked stop before their next signature. The controller's
// own pipeline still performs the
// authoritative authority check during push_transaction/push_block.
func VerifyBatch(ctx context.Context, verifier chaintypes.Verifier, txs []*chaintypes.SignedTransaction) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, tx := range txs {
		tx := tx
		g.Go(func() error {
			id, err := chaintypes.HashTransaction(tx)
			if err != nil {
				return fmt.Errorf("hashing transaction: %w", err)
			}
			digest := id[:]
			for i, sig := range tx.Signatures {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if _, err := verifier.RecoverKey(digest, sig); err != nil {
					return fmt.Errorf("recovering key for signature %d: %w", i, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
