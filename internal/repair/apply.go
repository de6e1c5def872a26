package repair

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
)

// Apply loads the bank from store, repairs it and rewrites every partition
// that changed. Partitions are written whole, one at a time.
func (r *Repairer) Apply(ctx context.Context, store questionbank.Store) (Result, error) {
	bank, err := store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load question bank: %w", err)
	}

	res := r.RepairBank(bank)
	for _, p := range res.Partitions() {
		if err := store.SavePartition(ctx, p, res.Bank.Partition(p)); err != nil {
			return res, fmt.Errorf("save partition %s: %w", p, err)
		}
		slog.Info("repaired partition", "partition", p, "store", store.Name())
	}
	slog.Info("citation repair complete", "questions", bank.Len(), "repaired", len(res.Changes))
	return res, nil
}
