package ports

import (
	"context"

	"github.com/aretw0/bngenvs/pkg/domain"
)

// RunIndex is a queryable index of persisted run records.
// The records themselves stay on disk; the index keeps one summary row per run.
type RunIndex interface {
	// Put inserts or replaces the entry for entry.RunID.
	Put(ctx context.Context, entry domain.RunEntry) error
	// Get returns domain.ErrRecordNotFound for unknown ids.
	Get(ctx context.Context, runID string) (domain.RunEntry, error)
	// List returns entries oldest first. An empty env lists every environment.
	List(ctx context.Context, env string) ([]domain.RunEntry, error)
}
