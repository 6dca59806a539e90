// Package redis provides Redis-backed run indexing and worker leasing, so several
// batch processes can share one view of finished runs and one set of simulators.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "bngenvs:"

// Index implements ports.RunIndex using Redis. Entries are JSON strings; sorted sets
// keyed by creation time index them overall and per environment type.
type Index struct {
	client backend.UniversalClient
	prefix string
}

// Option configures an Index.
type Option func(*Index)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Index) {
		s.prefix = prefix
	}
}

// Dial creates a client for the given redis:// URL.
func Dial(url string) (*backend.Client, error) {
	opts, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return backend.NewClient(opts), nil
}

// NewIndex creates a new Redis run index from an existing client.
func NewIndex(client backend.UniversalClient, opts ...Option) *Index {
	s := &Index{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Index) key(runID string) string {
	return s.prefix + "run:" + runID
}

func (s *Index) allKey() string {
	return s.prefix + "runs"
}

func (s *Index) envKey(env string) string {
	return s.prefix + "runs:" + env
}

// Put stores entry, replacing any entry with the same run id.
func (s *Index) Put(ctx context.Context, entry domain.RunEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal run entry: %w", err)
	}

	prev, err := s.Get(ctx, entry.RunID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}

	score := float64(entry.CreatedAt.UnixMilli())
	member := backend.Z{Score: score, Member: entry.RunID}

	pipe := s.client.TxPipeline()
	if err == nil && prev.Env != entry.Env {
		pipe.ZRem(ctx, s.envKey(prev.Env), entry.RunID)
	}
	pipe.Set(ctx, s.key(entry.RunID), data, 0)
	pipe.ZAdd(ctx, s.allKey(), member)
	pipe.ZAdd(ctx, s.envKey(entry.Env), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves one entry.
func (s *Index) Get(ctx context.Context, runID string) (domain.RunEntry, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.RunEntry{}, domain.ErrRecordNotFound
		}
		return domain.RunEntry{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	var entry domain.RunEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return domain.RunEntry{}, fmt.Errorf("failed to unmarshal run entry: %w", err)
	}
	return entry, nil
}

// List returns entries oldest first. Ties are ordered by run id.
func (s *Index) List(ctx context.Context, env string) ([]domain.RunEntry, error) {
	set := s.allKey()
	if env != "" {
		set = s.envKey(env)
	}
	ids, err := s.client.ZRange(ctx, set, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.RunEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}

	out := make([]domain.RunEntry, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Indexed but deleted behind our back.
			continue
		}
		var entry domain.RunEntry
		if err := json.Unmarshal([]byte(str), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run %s: %w", ids[i], err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// Close closes the redis client.
func (s *Index) Close() error {
	return s.client.Close()
}

var _ ports.RunIndex = (*Index)(nil)
