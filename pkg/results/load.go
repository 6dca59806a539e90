package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/aretw0/bngenvs"
	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
)

const (
	trackingStoreDir = "mlruns"
	artifactsDir     = "artifacts"
)

// Load reads the record at path, which is either a record directory or an experiment
// tracking run directory (".../mlruns/<experiment>/<run>"), whose record lives in its
// artifacts subdirectory.
//
// A record without outcome.json fails with domain.ErrIncompleteRecord and one written
// by another environment type with domain.ErrEnvMismatch. A version mismatch is only
// logged.
func Load(path, envName string, opts ...Option) (*Record, error) {
	dir, runID := resolveRecordPath(path)

	r := &Record{
		EnvName: envName,
		RunID:   runID,
		version: bngenvs.Version,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.dir = dir

	if err := readJSON(dir, OutcomeFile, &r.Outcome); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to load results at %s: %w", dir, domain.ErrIncompleteRecord)
		}
		return nil, err
	}
	if r.Outcome.Env != envName {
		return nil, fmt.Errorf("%w: found results for %q, expected %q", domain.ErrEnvMismatch, r.Outcome.Env, envName)
	}
	if r.Outcome.Version != r.version {
		r.logger.Warn("loading results saved by a different version",
			"env", envName,
			"saved", r.Outcome.Version,
			"running", r.version,
			"drift", versionDrift(r.Outcome.Version, r.version))
	}

	if err := readJSON(dir, BNGConfigFile, &r.BNGConfig); err != nil {
		return nil, err
	}
	if err := readJSON(dir, ParamsFile, &r.Params); err != nil {
		return nil, err
	}
	if err := readJSON(dir, ConfigFile, &r.Config); err != nil {
		return nil, err
	}
	if err := readJSON(dir, ResultsFile, &r.Results); err != nil {
		return nil, err
	}
	r.History = history.New()
	if err := readJSON(dir, HistoryFile, r.History); err != nil {
		return nil, err
	}
	r.outputRoot = filepath.Dir(dir)

	// Raw logs are only detected here; RawLogs parses them on demand.
	csvs, err := rawLogFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(csvs) > 0 {
		r.LogsPath = dir
	}
	return r, nil
}

func resolveRecordPath(path string) (dir, runID string) {
	path = filepath.Clean(strings.ReplaceAll(path, "\\", "/"))
	segments := strings.Split(filepath.ToSlash(path), "/")
	tracked := false
	hasArtifacts := false
	for _, s := range segments {
		switch s {
		case trackingStoreDir:
			tracked = true
		case artifactsDir:
			hasArtifacts = true
		}
	}
	if tracked && !hasArtifacts {
		return filepath.Join(path, artifactsDir), filepath.Base(path)
	}
	if tracked && filepath.Base(path) == artifactsDir {
		return path, filepath.Base(filepath.Dir(path))
	}
	return path, filepath.Base(path)
}

func readJSON(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// versionDrift classifies how far apart two versions are: "major", "minor", "patch",
// "prerelease" or "unknown" when either does not parse.
func versionDrift(saved, running string) string {
	a, errA := semver.NewVersion(saved)
	b, errB := semver.NewVersion(running)
	if errA != nil || errB != nil {
		return "unknown"
	}
	switch {
	case a.Major() != b.Major():
		return "major"
	case a.Minor() != b.Minor():
		return "minor"
	case a.Patch() != b.Patch():
		return "patch"
	default:
		return "prerelease"
	}
}
