package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/bngenvs/pkg/domain"
)

// Index implements ports.RunIndex in memory.
// Safe for concurrent use.
type Index struct {
	data map[string]domain.RunEntry
	mu   sync.RWMutex
}

// NewIndex creates a new in-memory run index.
func NewIndex() *Index {
	return &Index{
		data: make(map[string]domain.RunEntry),
	}
}

// Put stores a copy of entry.
func (s *Index) Put(ctx context.Context, entry domain.RunEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[entry.RunID] = copyEntry(entry)
	return nil
}

// Get returns a copy so callers cannot mutate the index through the scalars map.
func (s *Index) Get(ctx context.Context, runID string) (domain.RunEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[runID]
	if !ok {
		return domain.RunEntry{}, domain.ErrRecordNotFound
	}
	return copyEntry(e), nil
}

// List returns entries oldest first.
func (s *Index) List(ctx context.Context, env string) ([]domain.RunEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RunEntry, 0, len(s.data))
	for _, e := range s.data {
		if env != "" && e.Env != env {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RunID < out[j].RunID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func copyEntry(e domain.RunEntry) domain.RunEntry {
	if e.Scalars != nil {
		scalars := make(map[string]any, len(e.Scalars))
		for k, v := range e.Scalars {
			scalars[k] = v
		}
		e.Scalars = scalars
	}
	return e
}
