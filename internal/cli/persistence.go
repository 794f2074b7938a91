package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aretw0/covpipe/internal/config"
	"github.com/aretw0/covpipe/pkg/adapters/file"
	"github.com/aretw0/covpipe/pkg/adapters/memory"
	"github.com/aretw0/covpipe/pkg/adapters/redis"
	"github.com/aretw0/covpipe/pkg/persistence/middleware"
	"github.com/aretw0/covpipe/pkg/ports"
)

// processLocker is shared by every run of this process, including watch iterations,
// so the memory backend excludes overlapping runs on one build directory.
var processLocker = sync.OnceValue(func() *memory.Locker {
	return memory.NewLocker()
})

// persistence bundles the optional store and locker with their cleanup.
type persistence struct {
	store   ports.RunStore
	locker  ports.Locker
	closers []func() error
}

func (p *persistence) Close() {
	for _, c := range p.closers {
		_ = c()
	}
}

// setupPersistence opens the history store and the build-directory locker named by cfg.
// A nil store means history is disabled.
func setupPersistence(cfg config.Config, baseDir string, noHistory bool, logger *slog.Logger) (*persistence, error) {
	p := &persistence{}

	if !noHistory {
		switch cfg.History.Backend {
		case config.HistoryFile:
			dir := resolve(baseDir, cfg.History.Dir)
			p.store = file.New(dir)
			logger.Debug("History enabled", "backend", "file", "dir", dir)
		case config.HistoryRedis:
			store, err := redis.New(cfg.History.RedisURL, redis.WithTTL(cfg.History.TTL))
			if err != nil {
				return nil, fmt.Errorf("failed to open redis history: %w", err)
			}
			p.store = store
			p.closers = append(p.closers, store.Close)
			logger.Debug("History enabled", "backend", "redis", "ttl", cfg.History.TTL)
		}
	}

	if p.store != nil {
		redact, err := middleware.NewRedactMiddleware(cfg.History.Redact)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("invalid history.redact: %w", err)
		}
		p.store = middleware.Chain(p.store, redact, middleware.NewRetentionMiddleware(cfg.History.Keep))
	}

	switch cfg.Lock.Backend {
	case config.LockMemory:
		p.locker = processLocker()
	case config.LockRedis:
		client, err := redis.NewClient(cfg.Lock.RedisURL)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to open redis lock: %w", err)
		}
		p.locker = redis.NewLocker(client, redis.DefaultPrefix)
		p.closers = append(p.closers, client.Close)
	}

	return p, nil
}

// resolve anchors relative paths at the base directory.
func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
