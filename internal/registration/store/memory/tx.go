package memory

import (
	"context"
	"sync"

	txcontext "govportal/pkg/platform/tx"
)

// TxRunner gives memory stores all-or-nothing semantics. Transactions are
// serialized with each other. Stores record an undo step for every write made
// with the transaction's context, and on error only those steps are reversed;
// writes committed by other callers meanwhile are kept.
type TxRunner struct {
	mu sync.Mutex
}

func NewTxRunner() *TxRunner {
	return &TxRunner{}
}

func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	journal := &txcontext.Journal{}
	if err := fn(txcontext.WithJournal(ctx, journal)); err != nil {
		journal.Rollback()
		return err
	}
	return nil
}
