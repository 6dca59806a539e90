package domain

import "time"

// RunEntry is the index row of one persisted run record.
type RunEntry struct {
	RunID     string         `json:"run_id"`
	Env       string         `json:"env"`
	Version   string         `json:"version"`
	Complete  bool           `json:"complete"`
	Finished  bool           `json:"finished"`
	Path      string         `json:"path"`
	CreatedAt time.Time      `json:"created_at"`
	Scalars   map[string]any `json:"scalars,omitempty"`
}
