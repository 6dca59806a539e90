package bngsim_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/bngenvs/pkg/adapters/fake"
	"github.com/aretw0/bngenvs/pkg/bngsim"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type waits struct {
	calls []time.Duration
}

func (w *waits) wait(_ context.Context, d time.Duration) error {
	w.calls = append(w.calls, d)
	return nil
}

func newSim(t *testing.T, sim *fake.Simulator, opts ...domain.ConfigOption) (*bngsim.Sim, *waits) {
	t.Helper()
	cfg, err := domain.NewConfig(opts...)
	require.NoError(t, err)
	w := &waits{}
	return bngsim.New(cfg, sim.Connector(), bngsim.WithWait(w.wait)), w
}

func testScenario() domain.Scenario {
	return domain.Scenario{
		Level: "gridmap_v2",
		Name:  "unit",
		Vehicles: []domain.VehicleSpec{
			{ID: "ego", Model: "sunburst", Pose: domain.Pose{Pos: domain.Vec3{1, 2, 3}}},
		},
	}
}

func TestSim_LaunchCreatesOnceAndAlwaysOpens(t *testing.T) {
	var connects int
	f := fake.New()
	connect := func(cfg domain.BeamNGConfig) (ports.Simulator, error) {
		connects++
		return f.Connector()(cfg)
	}
	cfg, err := domain.NewConfig()
	require.NoError(t, err)
	s := bngsim.New(cfg, connect)

	ctx := context.Background()
	require.NoError(t, s.Launch(ctx))
	require.NoError(t, s.Launch(ctx))

	assert.Equal(t, 1, connects)
	assert.Equal(t, 2, f.Stats().Opens)
	assert.True(t, s.Connected())
}

func TestSim_CloseHonoursConfig(t *testing.T) {
	ctx := context.Background()

	f := fake.New()
	s, w := newSim(t, f, domain.WithCloseOnDone(false))
	require.NoError(t, s.Launch(ctx))

	require.NoError(t, s.Close(ctx, false))
	assert.True(t, s.Connected(), "close_on_done=false keeps the connection")
	assert.Equal(t, 0, f.Stats().Closes)

	require.NoError(t, s.Close(ctx, true))
	assert.False(t, s.Connected())
	assert.Equal(t, 1, f.Stats().Closes)
	assert.Equal(t, []time.Duration{bngsim.DefaultCloseDelay}, w.calls)

	// Closing without a connection is a no-op even when forced.
	require.NoError(t, s.Close(ctx, true))
	assert.Equal(t, 1, f.Stats().Closes)
}

func TestSim_ResetForcesCloseThenLaunch(t *testing.T) {
	ctx := context.Background()
	f := fake.New()
	s, _ := newSim(t, f, domain.WithCloseOnDone(false))

	require.NoError(t, s.Launch(ctx))
	require.NoError(t, s.Reset(ctx))

	st := f.Stats()
	assert.Equal(t, 1, st.Closes)
	assert.Equal(t, 2, st.Opens)
	assert.True(t, s.Connected())
}

func TestSim_StartScenarioLeavesPaused(t *testing.T) {
	ctx := context.Background()
	f := fake.New()
	s, w := newSim(t, f, domain.WithFPS(50))
	require.NoError(t, s.Launch(ctx))

	require.NoError(t, s.StartScenario(ctx, testScenario(), 3*time.Second))

	st := f.Stats()
	assert.True(t, st.Paused)
	assert.Equal(t, 50, st.FPS)
	assert.Equal(t, 1, st.Graphics)
	assert.Equal(t, []time.Duration{3 * time.Second}, w.calls)
	assert.Equal(t,
		[]string{"Open", "LoadScenario", "StartScenario", "SetStepsPerSecond", "ApplyGraphicsSetting", "Pause"},
		f.Calls())
}

func TestSim_StartScenarioWithoutConnection(t *testing.T) {
	s, _ := newSim(t, fake.New())
	err := s.StartScenario(context.Background(), testScenario(), 0)
	assert.ErrorIs(t, err, domain.ErrNoConnection)
}

func TestSim_FailuresPropagate(t *testing.T) {
	boom := errors.New("boom")
	ctx := context.Background()
	s, _ := newSim(t, fake.New(fake.WithFailure("StartScenario", boom)))
	require.NoError(t, s.Launch(ctx))

	err := s.StartScenario(ctx, testScenario(), 0)
	assert.ErrorIs(t, err, boom)
}

func TestSim_CheckTimeLimit(t *testing.T) {
	s, _ := newSim(t, fake.New(), domain.WithMaxTime(2), domain.WithFPS(20))

	for step := 0; step <= 40; step++ {
		done, err := s.CheckTimeLimit(step)
		require.NoError(t, err)
		assert.False(t, done, "step %d", step)
	}
	done, err := s.CheckTimeLimit(41)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSim_CheckTimeLimitHardFailure(t *testing.T) {
	s, _ := newSim(t, fake.New(), domain.WithMaxTime(2), domain.WithFPS(20), domain.WithErrorOnOutOfTime(true))

	_, err := s.CheckTimeLimit(40)
	require.NoError(t, err)

	_, err = s.CheckTimeLimit(41)
	var oot *domain.OutOfTimeError
	require.ErrorAs(t, err, &oot)
	assert.Equal(t, 41, oot.Step)
	assert.ErrorIs(t, err, domain.ErrOutOfTime)
}

func TestSim_TinyBudgetEndsOnFirstStep(t *testing.T) {
	s, _ := newSim(t, fake.New(), domain.WithMaxTime(1e-6))
	done, err := s.CheckTimeLimit(1)
	require.NoError(t, err)
	assert.True(t, done)

	hard, _ := newSim(t, fake.New(), domain.WithMaxTime(1e-6), domain.WithErrorOnOutOfTime(true))
	_, err = hard.CheckTimeLimit(1)
	assert.ErrorIs(t, err, domain.ErrOutOfTime)
}

func TestSim_RealTime(t *testing.T) {
	s, _ := newSim(t, fake.New(), domain.WithFPS(60))
	for _, step := range []int{0, 1, 59, 60, 61, 10800} {
		assert.InDelta(t, float64(step)/60, s.RealTime(step), 1e-12)
	}
}

func TestSim_PollSensorsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	f := fake.New()
	s, _ := newSim(t, f)
	require.NoError(t, s.Launch(ctx))
	require.NoError(t, s.StartScenario(ctx, testScenario(), 0))

	v, err := s.Vehicle("ego")
	require.NoError(t, err)
	require.NoError(t, s.AttachSensors(ctx, v))

	first, err := s.PollSensors(ctx, v)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"state", "electrics", "g_forces", "damage"}, keys(first))

	pos := first["state"].(map[string]any)["pos"].([]float64)
	assert.Equal(t, []float64{1, 2, 3}, pos)
	pos[0] = 99

	second, err := s.PollSensors(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, 1.0, second["state"].(map[string]any)["pos"].([]float64)[0])
}

func TestSim_LoggingGatedByConfig(t *testing.T) {
	ctx := context.Background()

	f := fake.New()
	s, _ := newSim(t, f)
	require.NoError(t, s.Launch(ctx))
	require.NoError(t, s.StartScenario(ctx, testScenario(), 0))
	v, err := s.Vehicle("ego")
	require.NoError(t, err)

	require.NoError(t, s.StartLogging(ctx, v, "TrackTestEnv/abc"))
	path, ok, err := s.StopLogging(ctx, v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.NotContains(t, f.Calls(), "Vehicle.StartLogging")
}

func TestSim_LoggingReturnsPath(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	f := fake.New(fake.WithLogRoot(root))
	s, _ := newSim(t, f, domain.WithLogging(true))
	require.NoError(t, s.Launch(ctx))
	require.NoError(t, s.StartScenario(ctx, testScenario(), 0))
	v, err := s.Vehicle("ego")
	require.NoError(t, err)

	require.NoError(t, s.StartLogging(ctx, v, "DragStripEnv/run"))
	require.NoError(t, s.Step(ctx))
	path, ok, err := s.StopLogging(ctx, v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "DragStripEnv/run", path)

	_, err = os.Stat(filepath.Join(root, "DragStripEnv", "run", "ego_position.csv"))
	assert.NoError(t, err)
}

func TestSim_DebugOverlay(t *testing.T) {
	ctx := context.Background()
	f := fake.New()
	s, _ := newSim(t, f, domain.WithCloseOnDone(false))

	require.NoError(t, s.Launch(ctx))
	// Removing without an overlay is a no-op.
	require.NoError(t, s.RemoveDebugPaths(ctx))
	assert.NotContains(t, f.Calls(), "RemoveSpheres")

	nodes := []domain.PathNode{{X: 0, Y: 0, Z: 0, T: 0}, {X: 0, Y: 10, Z: 0, T: 1}, {X: 0, Y: 20, Z: 0, T: 2}}
	require.NoError(t, s.AddDebugPath(ctx, nodes))
	assert.Equal(t, 3, f.Stats().Spheres)
	assert.Equal(t, 1, f.Stats().Lines)

	// Redrawing clears the previous overlay first.
	require.NoError(t, s.AddDebugPath(ctx, nodes[:2]))
	assert.Equal(t, 2, f.Stats().Spheres)
	assert.Equal(t, 1, f.Stats().Lines)

	// The overlay survives a reset and is still removable afterwards.
	require.NoError(t, s.Reset(ctx))
	require.NotNil(t, s.Overlay())
	require.NoError(t, s.RemoveDebugPaths(ctx))
	assert.Nil(t, s.Overlay())
	assert.Equal(t, 0, f.Stats().Spheres)
	assert.Equal(t, 0, f.Stats().Lines)
}

func keys(m domain.SensorData) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
