package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/ports"
)

type retentionMiddleware struct {
	ports.RunStore
	keep int
}

// NewRetentionMiddleware deletes the oldest runs after each save so that at most
// keep records remain. keep <= 0 disables pruning.
func NewRetentionMiddleware(keep int) Middleware {
	return func(next ports.RunStore) ports.RunStore {
		if keep <= 0 {
			return next
		}
		return &retentionMiddleware{RunStore: next, keep: keep}
	}
}

func (m *retentionMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	if err := m.RunStore.Save(ctx, record); err != nil {
		return err
	}

	records, err := m.RunStore.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs for pruning: %w", err)
	}
	for _, old := range records[min(m.keep, len(records)):] {
		if old.ID == record.ID {
			continue
		}
		if err := m.RunStore.Delete(ctx, old.ID); err != nil {
			return fmt.Errorf("failed to prune run %s: %w", old.ID, err)
		}
	}
	return nil
}
