package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/covpipe/pkg/domain"
)

// DefaultDir is where run records live when no directory is configured.
var DefaultDir = filepath.Join(".covpipe", "runs")

// Store implements ports.RunStore using the local filesystem.
// It stores each run as a JSON file in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".covpipe/runs".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.BasePath, runID+".json")
}

// Save persists the run record to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure run directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+record.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename refuses to replace an existing file on Windows
	destPath := s.path(record.ID)
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing run file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to run file: %w", err)
	}
	return nil
}

// Load retrieves the run record from its JSON file.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}

	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var record domain.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &record, nil
}

// Delete removes the run file.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	err := os.Remove(s.path(runID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run file: %w", err)
	}
	return nil
}

// List returns all stored runs, newest first. Unreadable files are skipped.
func (s *Store) List(ctx context.Context) ([]*domain.RunRecord, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.RunRecord{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	records := make([]*domain.RunRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		record, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}
