package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// workspace points the simulator user path at a temp dir and returns the output
// directory and sqlite index to use.
func workspace(t *testing.T) (output, db string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(domain.EnvBeamNGUser, filepath.Join(dir, "user"))
	return filepath.Join(dir, "results"), filepath.Join(dir, "runs.db")
}

func TestRunCommand(t *testing.T) {
	output, db := workspace(t)

	out, err := execute(t, "run", "drag_strip", "--max-time", "0.5", "--fps", "20", "-o", output, "--sqlite", db)
	require.NoError(t, err)

	var got struct {
		Env     string         `json:"env"`
		RunID   string         `json:"run_id"`
		Path    string         `json:"path"`
		Results map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "DragStripEnv", got.Env)
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, filepath.Join(output, got.RunID), got.Path)
	assert.Equal(t, false, got.Results["finished"])
	assert.InDelta(t, 0.55, got.Results["time_s"], 1e-9)

	t.Run("runs ls", func(t *testing.T) {
		out, err := execute(t, "runs", "ls", "--sqlite", db, "--env", "drag")
		require.NoError(t, err)
		assert.Contains(t, out, "RUN ID")
		assert.Contains(t, out, got.RunID)
		assert.Contains(t, out, "unfinished")
	})

	t.Run("runs show", func(t *testing.T) {
		out, err := execute(t, "runs", "show", got.RunID, "--sqlite", db)
		require.NoError(t, err)
		var entry domain.RunEntry
		require.NoError(t, json.Unmarshal([]byte(out), &entry))
		assert.Equal(t, got.Path, entry.Path)
		assert.True(t, entry.Complete)
	})

	t.Run("inspect json", func(t *testing.T) {
		out, err := execute(t, "inspect", got.Path, "--env", "drag_strip", "--json")
		require.NoError(t, err)
		var scalars map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &scalars))
		assert.Equal(t, false, scalars["results_finished"])
	})

	t.Run("inspect markdown", func(t *testing.T) {
		out, err := execute(t, "inspect", got.Path, "--env", "drag_strip")
		require.NoError(t, err)
		assert.Contains(t, out, "# DragStripEnv `"+got.RunID+"`")
		assert.Contains(t, out, "## Results")
	})

	t.Run("inspect timeseries", func(t *testing.T) {
		out, err := execute(t, "inspect", got.Path, "--env", "drag_strip", "--timeseries")
		require.NoError(t, err)
		assert.Contains(t, out, "state_pos_0")
	})

	t.Run("inspect wrong env", func(t *testing.T) {
		_, err := execute(t, "inspect", got.Path, "--env", "track_test")
		assert.ErrorIs(t, err, domain.ErrEnvMismatch)
	})
}

func TestRunCommandErrors(t *testing.T) {
	output, _ := workspace(t)

	_, err := execute(t, "run", "-o", output)
	assert.ErrorContains(t, err, "no environment given")

	_, err = execute(t, "run", "submarine", "-o", output)
	assert.Error(t, err)

	_, err = execute(t, "run", "drag_strip", "--fps", "5", "-o", output)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = execute(t, "run", "crash_test", "-o", output)
	assert.ErrorIs(t, err, domain.ErrMissingCatalog)

	_, err = execute(t, "run", "drag_strip", "--simulator", "beamngpy", "-o", output)
	assert.ErrorContains(t, err, "simulator backend not found")
}

func TestBatchCommand(t *testing.T) {
	output, db := workspace(t)

	out, err := execute(t, "batch", "drag_strip", "-n", "3", "--workers", "2",
		"--max-time", "0.5", "--fps", "20", "-o", output, "--sqlite", db)
	require.NoError(t, err)
	assert.Equal(t, "3 runs: 0 finished, 3 unfinished, 0 failed\n", out)

	out, err = execute(t, "runs", "ls", "--sqlite", db)
	require.NoError(t, err)
	assert.Equal(t, 4, bytes.Count([]byte(out), []byte("\n")))
}

func TestRunsWithoutIndex(t *testing.T) {
	_, err := execute(t, "runs", "ls")
	assert.ErrorIs(t, err, errNoIndex)
}

func TestSpaceCommand(t *testing.T) {
	out, err := execute(t, "space", "track")
	require.NoError(t, err)
	assert.Contains(t, out, "env: TrackTestEnv")
	assert.Contains(t, out, "$brakestrength")

	_, err = execute(t, "space", "crash")
	assert.ErrorIs(t, err, domain.ErrMissingCatalog)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bngenvs version")
}

func TestScalar(t *testing.T) {
	assert.Equal(t, 3, scalar("3"))
	assert.Equal(t, 0.5, scalar("0.5"))
	assert.Equal(t, true, scalar("true"))
	assert.Equal(t, "flat_mid", scalar("flat_mid"))
	assert.Equal(t, "[1, 2]", scalar("[1, 2]"))
}
