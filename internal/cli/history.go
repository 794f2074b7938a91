package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/covpipe/internal/presentation/tui"
	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/ports"
)

// LatestRun selects the most recent record in Show.
const LatestRun = "latest"

var errHistoryDisabled = errors.New("run history is disabled (history.backend: none)")

// History lists stored runs, newest first. limit <= 0 lists all.
func History(ctx context.Context, opts RunOptions, limit int) error {
	return withStore(opts, func(store ports.RunStore) error {
		records, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
		if len(records) == 0 {
			fmt.Fprintln(opts.stdout(), "No runs recorded yet.")
			return nil
		}
		tui.HistoryTable(opts.stdout(), records)
		return nil
	})
}

// Show renders one stored run as markdown.
func Show(ctx context.Context, opts RunOptions, id string) error {
	return withStore(opts, func(store ports.RunStore) error {
		record, err := findRun(ctx, store, id)
		if err != nil {
			return err
		}
		out, err := tui.NewRenderer(opts.stdout())(tui.RunMarkdown(record))
		if err != nil {
			return fmt.Errorf("failed to render run: %w", err)
		}
		fmt.Fprint(opts.stdout(), out)
		return nil
	})
}

func findRun(ctx context.Context, store ports.RunStore, id string) (*domain.RunRecord, error) {
	if id != LatestRun {
		return store.Load(ctx, id)
	}
	records, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.ErrRunNotFound
	}
	return records[0], nil
}

func withStore(opts RunOptions, fn func(ports.RunStore) error) error {
	base, cfg, err := opts.load()
	if err != nil {
		return err
	}
	p, err := setupPersistence(cfg, base, false, createLogger(opts))
	if err != nil {
		return err
	}
	defer p.Close()

	if p.store == nil {
		return errHistoryDisabled
	}
	return fn(p.store)
}
