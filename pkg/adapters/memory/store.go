package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/covpipe/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.RunRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.RunRecord),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	copied := copyRecord(record)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.ID] = copied
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return copyRecord(record), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns stored runs, newest first.
func (s *Store) List(ctx context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.RunRecord, 0, len(s.data))
	for _, r := range s.data {
		records = append(records, copyRecord(r))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}

func copyRecord(r *domain.RunRecord) *domain.RunRecord {
	c := *r
	c.Stages = make([]domain.StageResult, len(r.Stages))
	for i, st := range r.Stages {
		st.Command.Args = append([]string(nil), st.Command.Args...)
		st.Command.Env = nil
		c.Stages[i] = st
	}
	if r.Summary != nil {
		summary := *r.Summary
		c.Summary = &summary
	}
	return &c
}
