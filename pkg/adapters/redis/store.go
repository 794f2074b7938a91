package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "covpipe:"

// Store implements ports.RunStore using Redis.
// Records are JSON strings; a sorted set indexes them by start time.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for run records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store from a redis:// URL.
func New(url string, opts ...Option) (*Store, error) {
	client, err := NewClient(url)
	if err != nil {
		return nil, err
	}
	return NewFromClient(client, opts...), nil
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*backend.Client, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return backend.NewClient(options), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(runID string) string {
	return s.prefix + "run:" + runID
}

func (s *Store) indexKey() string {
	return s.prefix + "runs"
}

// Save persists the record to Redis.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(record.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(record.StartedAt.UnixNano()),
		Member: record.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the record from Redis.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var record domain.RunRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &record, nil
}

// Delete removes the record and its index entry.
func (s *Store) Delete(ctx context.Context, runID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(runID))
	pipe.ZRem(ctx, s.indexKey(), runID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored runs, newest first.
// Index entries whose record has expired are pruned lazily.
func (s *Store) List(ctx context.Context) ([]*domain.RunRecord, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.RunRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	records := make([]*domain.RunRecord, 0, len(ids))
	var expired []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var record domain.RunRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired runs: %w", err)
		}
	}
	return records, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
