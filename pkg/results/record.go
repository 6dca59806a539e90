package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/bngenvs"
	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
	"github.com/google/uuid"
)

// Record file names.
const (
	BNGConfigFile = "bng_config.json"
	ParamsFile    = "params.json"
	ConfigFile    = "config.json"
	ResultsFile   = "results.json"
	HistoryFile   = "history.json"
	OutcomeFile   = "outcome.json"
)

// Record is one run record, either about to be saved or loaded from disk.
type Record struct {
	EnvName string
	RunID   string

	BNGConfig domain.BeamNGConfig
	// Config holds the serializable run settings, as written to config.json.
	Config  map[string]any
	Params  domain.Params
	Results domain.Results
	History *history.History
	Outcome domain.Outcome

	// LogsPath locates the simulator's raw logs. Relative paths resolve below
	// <BNGConfig.User>/<SimulatorDataVersion>.
	LogsPath string

	outputRoot string
	dir        string
	version    string
	logger     *slog.Logger
}

// Option configures a Record.
type Option func(*Record)

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(r *Record) { r.RunID = id }
}

// WithLogger sets the logger for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Record) { r.logger = logger }
}

// WithVersion sets the software version stamped on save and expected on load.
// It defaults to bngenvs.Version.
func WithVersion(v string) Option {
	return func(r *Record) { r.version = v }
}

// New creates an unsaved record with a fresh run id.
func New(envName string, cfg domain.Config, params domain.Params, res domain.Results, h *history.History, logsPath string, opts ...Option) (*Record, error) {
	config, err := plainMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if h == nil {
		h = history.New()
	}
	r := &Record{
		EnvName:    envName,
		RunID:      uuid.NewString(),
		BNGConfig:  cfg.BeamNG,
		Config:     config,
		Params:     params.Clone(),
		Results:    res,
		History:    h,
		LogsPath:   logsPath,
		outputRoot: cfg.OutputPath,
		version:    bngenvs.Version,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Outcome = domain.Outcome{Complete: true, Env: envName, Version: r.version}
	return r, nil
}

// OutputPath is the absolute record directory, created on first use.
func (r *Record) OutputPath() (string, error) {
	if r.dir == "" {
		dir, err := filepath.Abs(filepath.Join(r.outputRoot, r.RunID))
		if err != nil {
			return "", err
		}
		r.dir = dir
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create record directory: %w", err)
	}
	return r.dir, nil
}

// Path is the record directory, or "" before the first save.
func (r *Record) Path() string { return r.dir }

// Save writes every document, moves raw logs in and writes outcome.json last.
func (r *Record) Save(ctx context.Context) error {
	dir, err := r.OutputPath()
	if err != nil {
		return err
	}

	docs := []struct {
		name string
		v    any
	}{
		{BNGConfigFile, r.BNGConfig},
		{ParamsFile, r.Params},
		{ConfigFile, r.Config},
		{ResultsFile, r.Results},
		{HistoryFile, r.History.Map()},
	}
	for _, d := range docs {
		if err := writeJSON(dir, d.name, d.v); err != nil {
			return err
		}
	}

	if err := r.moveRawLogs(dir); err != nil {
		return err
	}

	if err := writeJSON(dir, OutcomeFile, r.Outcome); err != nil {
		return err
	}
	r.logger.Debug("run record saved", "run_id", r.RunID, "path", dir)
	return nil
}

// rawLogsSource resolves LogsPath, or returns "" when there is nothing to move.
func (r *Record) rawLogsSource() string {
	if r.LogsPath == "" {
		return ""
	}
	if filepath.IsAbs(r.LogsPath) {
		return r.LogsPath
	}
	return filepath.Join(r.BNGConfig.User, bngenvs.SimulatorDataVersion, r.LogsPath)
}

func (r *Record) moveRawLogs(dir string) error {
	src := r.rawLogsSource()
	if src == "" {
		return nil
	}
	if abs, err := filepath.Abs(src); err == nil && abs == dir {
		return nil
	}
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat raw logs: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("raw logs path %s is not a directory", src)
	}
	if err := os.CopyFS(dir, os.DirFS(src)); err != nil {
		return fmt.Errorf("failed to copy raw logs: %w", err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("failed to remove raw logs source: %w", err)
	}
	return nil
}

// writeJSON writes v to dir/name atomically. It writes to a temporary file in the same
// directory, syncs it, and renames it over the destination.
func writeJSON(dir, name string, v any) error {
	doc, err := plain(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
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

	dest := filepath.Join(dir, name)
	// Windows cannot rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove existing %s for overwrite: %w", name, err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", name, err)
	}
	return nil
}
