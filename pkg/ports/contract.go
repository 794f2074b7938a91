package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		record := domain.NewRunRecord(runID, "/work", started)
		record.Status = domain.RunFailed
		record.ExitCode = 8
		record.FailedStage = domain.StageTest
		record.Stages = append(record.Stages, domain.StageResult{
			Stage:    domain.StageTest,
			Command:  domain.Command{Name: "ctest", Dir: "/work/example/build"},
			ExitCode: 8,
		})

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.ID, loaded.ID)
		assert.Equal(t, domain.RunFailed, loaded.Status)
		assert.Equal(t, 8, loaded.ExitCode)
		assert.Equal(t, domain.StageTest, loaded.FailedStage)
		require.Len(t, loaded.Stages, 1)
		assert.Equal(t, "ctest", loaded.Stages[0].Command.Name)
		assert.True(t, started.Equal(loaded.StartedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, domain.NewRunRecord(runID, "/work", started))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List Newest First", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(id1, "/work", started)))
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(id2, "/work", started.Add(time.Minute))))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		records, err := store.List(ctx)
		require.NoError(t, err)

		var ids []string
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		require.Contains(t, ids, id1)
		require.Contains(t, ids, id2)

		pos := func(id string) int {
			for i, v := range ids {
				if v == id {
					return i
				}
			}
			return -1
		}
		assert.Less(t, pos(id2), pos(id1), "newer run should be listed first")
	})
}

// RunLockerContract verifies mutual exclusion and release semantics of a Locker.
func RunLockerContract(t *testing.T, locker Locker) {
	ctx := context.Background()
	key := "/work/example/build"

	t.Run("Exclusive", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Minute)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, time.Minute)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "second lock must wait while the first is held")

		require.NoError(t, unlock(ctx))
	})

	t.Run("Reacquire After Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		acquireCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		unlock, err = locker.Lock(acquireCtx, key, time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("Independent Keys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, key+"-a", time.Minute)
		require.NoError(t, err)
		defer func() { _ = unlockA(ctx) }()

		acquireCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		unlockB, err := locker.Lock(acquireCtx, key+"-b", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlockB(ctx))
	})
}
