package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := domain.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 180.0, cfg.MaxTime)
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, "results", cfg.OutputPath)
	assert.True(t, cfg.CloseOnDone)
	assert.False(t, cfg.ErrorOnOutOfTime)
	assert.False(t, cfg.Logging)
	assert.Nil(t, cfg.CarConfigs)
}

func TestNewConfig_RejectsLowFPS(t *testing.T) {
	for _, fps := range []int{-1, 0, 1, 19} {
		_, err := domain.NewConfig(domain.WithFPS(fps))
		assert.ErrorIs(t, err, domain.ErrInvalidConfig, "fps %d", fps)
	}

	cfg, err := domain.NewConfig(domain.WithFPS(domain.MinFPS))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.FPS)
}

type stubCatalog struct{}

func (stubCatalog) Lookup(string) (domain.PartConfig, bool) { return domain.PartConfig{}, false }
func (stubCatalog) Names() []string { return nil }

func TestNewConfig_OptionsSetTheirField(t *testing.T) {
	bng := domain.BeamNGConfig{Home: "/opt/sim", User: "/tmp/ws", Host: "10.0.0.2", Port: 58000}
	cfg, err := domain.NewConfig(
		domain.WithMaxTime(12.5),
		domain.WithFPS(30),
		domain.WithErrorOnOutOfTime(true),
		domain.WithOutputPath("out"),
		domain.WithLogging(true),
		domain.WithCloseOnDone(false),
		domain.WithTechSensors(true),
		domain.WithBeamNG(bng),
		domain.WithCarConfigs(stubCatalog{}),
	)
	require.NoError(t, err)
	assert.Equal(t, 12.5, cfg.MaxTime)
	assert.Equal(t, 30, cfg.FPS)
	assert.True(t, cfg.ErrorOnOutOfTime)
	assert.Equal(t, "out", cfg.OutputPath)
	assert.True(t, cfg.Logging)
	assert.False(t, cfg.CloseOnDone)
	assert.True(t, cfg.UseTechSensors)
	assert.Equal(t, bng, cfg.BeamNG)
	assert.Equal(t, stubCatalog{}, cfg.CarConfigs)
}

func TestNewConfig_RejectsNonPositiveMaxTime(t *testing.T) {
	_, err := domain.NewConfig(domain.WithMaxTime(0))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewConfig_EnvironmentPresetsAreFresh(t *testing.T) {
	crash, err := domain.NewConfig(domain.CrashTestConfig()...)
	require.NoError(t, err)
	assert.Equal(t, 20.0, crash.MaxTime)
	assert.Equal(t, 100, crash.FPS)
	assert.False(t, crash.CloseOnDone)
	assert.Equal(t, "crash_test_results", crash.OutputPath)

	// Overrides on one preset must not leak into the next.
	opts := append(domain.DragStripConfig(), domain.WithMaxTime(5))
	drag, err := domain.NewConfig(opts...)
	require.NoError(t, err)
	assert.Equal(t, 5.0, drag.MaxTime)

	drag2, err := domain.NewConfig(domain.DragStripConfig()...)
	require.NoError(t, err)
	assert.Equal(t, 180.0, drag2.MaxTime)
	assert.Equal(t, "drag_strip_results", drag2.OutputPath)
}

func TestDefaultBeamNGConfig_FromEnvironment(t *testing.T) {
	t.Setenv(domain.EnvBeamNGHome, "/opt/beamng")
	t.Setenv(domain.EnvBeamNGUser, "/tmp/ws")
	t.Setenv(domain.EnvBeamNGHost, "sim-1")
	t.Setenv(domain.EnvBeamNGPort, "60000")

	c := domain.DefaultBeamNGConfig()
	assert.Equal(t, domain.BeamNGConfig{Home: "/opt/beamng", User: "/tmp/ws", Host: "sim-1", Port: 60000}, c)
}

func TestDefaultBeamNGConfig_BadPortKeepsDefault(t *testing.T) {
	t.Setenv(domain.EnvBeamNGPort, "not-a-port")
	assert.Equal(t, 64259, domain.DefaultBeamNGConfig().Port)
}

func TestOutOfTimeError_Unwraps(t *testing.T) {
	var err error = &domain.OutOfTimeError{Step: 11, MaxSteps: 10, MaxTime: 1, FPS: 10}
	assert.True(t, errors.Is(err, domain.ErrOutOfTime))
	assert.Contains(t, err.Error(), "step 11")
}

func TestParamsClone_IsDeep(t *testing.T) {
	p := domain.Params{"nested": map[string]any{"a": 1.0}, "list": []any{1.0}}
	c := p.Clone()

	p["nested"].(map[string]any)["a"] = 2.0
	p["list"].([]any)[0] = 3.0

	assert.Equal(t, 1.0, c["nested"].(map[string]any)["a"])
	assert.Equal(t, 1.0, c["list"].([]any)[0])
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnStep: func(_ context.Context, _ *domain.StepEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnStep: func(_ context.Context, _ *domain.StepEvent) { calls = append(calls, "b") }}

	m := a.Merge(b)
	m.OnStep(context.Background(), &domain.StepEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, m.OnRunStart)
}
