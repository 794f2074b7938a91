package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/covpipe/pkg/adapters/file"
	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements RunStore
var _ ports.RunStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunRunStoreContract(t, store)
}

func TestFileStore_DefaultPath(t *testing.T) {
	store := file.New("")
	assert.Equal(t, filepath.Join(".covpipe", "runs"), store.BasePath)
}

func TestFileStore_AtomicOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	record := domain.NewRunRecord("run-1", "/work", time.Now())
	require.NoError(t, store.Save(ctx, record))

	record.Status = domain.RunSucceeded
	require.NoError(t, store.Save(ctx, record))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, loaded.Status)

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1.json", entries[0].Name())
}

func TestFileStore_ListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewRunRecord("good", "/work", time.Now())))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].ID)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStore_EmptyID(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, &domain.RunRecord{}))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
}
