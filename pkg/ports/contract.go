package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunIndexContract runs a suite of tests to verify that a RunIndex implementation
// adheres to the defined interface contract. The index must start empty.
func RunIndexContract(t *testing.T, idx RunIndex) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := func(id, env string, offset time.Duration) domain.RunEntry {
		return domain.RunEntry{
			RunID:     id,
			Env:       env,
			Version:   "0.6.0",
			Complete:  true,
			Finished:  true,
			Path:      "/results/" + id,
			CreatedAt: base.Add(offset),
			Scalars:   map[string]any{"results_time_s": 12.5, "run_id": id},
		}
	}

	t.Run("Put and Get", func(t *testing.T) {
		e := entry("run-a", "TrackTestEnv", 0)
		require.NoError(t, idx.Put(ctx, e))

		got, err := idx.Get(ctx, "run-a")
		require.NoError(t, err)
		assert.Equal(t, e.RunID, got.RunID)
		assert.Equal(t, e.Env, got.Env)
		assert.Equal(t, e.Path, got.Path)
		assert.True(t, got.Complete)
		assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, 12.5, got.Scalars["results_time_s"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := idx.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Put Replaces", func(t *testing.T) {
		e := entry("run-a", "TrackTestEnv", 0)
		e.Finished = false
		require.NoError(t, idx.Put(ctx, e))

		got, err := idx.Get(ctx, "run-a")
		require.NoError(t, err)
		assert.False(t, got.Finished)
	})

	t.Run("List by Env", func(t *testing.T) {
		require.NoError(t, idx.Put(ctx, entry("run-c", "CrashTestEnv", 2*time.Minute)))
		require.NoError(t, idx.Put(ctx, entry("run-b", "TrackTestEnv", time.Minute)))

		track, err := idx.List(ctx, "TrackTestEnv")
		require.NoError(t, err)
		require.Len(t, track, 2)
		assert.Equal(t, "run-a", track[0].RunID)
		assert.Equal(t, "run-b", track[1].RunID)

		all, err := idx.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, "run-c", all[2].RunID)
	})
}
