package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/covpipe/pkg/adapters/memory"
	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunRunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	record := domain.NewRunRecord("run-1", "/work", time.Now())
	record.Stages = append(record.Stages, domain.StageResult{
		Stage:   domain.StageBuild,
		Command: domain.Command{Name: "ninja", Args: []string{"-j4"}},
	})
	require.NoError(t, store.Save(ctx, record))

	// Mutating the caller's copy must not leak into the store
	record.Stages[0].Command.Args[0] = "-j1"
	record.Status = domain.RunFailed

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "-j4", loaded.Stages[0].Command.Args[0])
	assert.Equal(t, domain.RunRunning, loaded.Status)
}

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func TestMemoryLocker_DoubleUnlock(t *testing.T) {
	ctx := context.Background()
	locker := memory.NewLocker()

	unlock, err := locker.Lock(ctx, "k", 0)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx))

	// The second unlock must not have freed a slot held by someone else
	unlock2, err := locker.Lock(ctx, "k", 0)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "k", 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, unlock2(ctx))
}
