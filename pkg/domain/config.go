package domain

import (
	"fmt"
	"os"
	"strconv"
)

// MinFPS is the lowest physics step rate that still gives stable vehicle control.
const MinFPS = 20

// Environment variables used to source the simulator connection defaults.
const (
	EnvBeamNGHome = "BEAMNG_PATH"
	EnvBeamNGUser = "BEAMNG_USER_PATH"
	EnvBeamNGHost = "BEAMNG_HOST"
	EnvBeamNGPort = "BEAMNG_PORT"
)

// BeamNGConfig is the simulator connection sub-config.
type BeamNGConfig struct {
	Home string `json:"home" mapstructure:"home" yaml:"home"`
	User string `json:"user" mapstructure:"user" yaml:"user"`
	Host string `json:"host" mapstructure:"host" yaml:"host"`
	Port int    `json:"port" mapstructure:"port" yaml:"port"`
}

// DefaultBeamNGConfig returns the connection config built from the BEAMNG_* environment
// variables, falling back to documented defaults for unset or malformed values.
func DefaultBeamNGConfig() BeamNGConfig {
	c := BeamNGConfig{
		Home: envOr(EnvBeamNGHome, "/path/to/beamng"),
		User: envOr(EnvBeamNGUser, "/beamng_workspace/"),
		Host: envOr(EnvBeamNGHost, "localhost"),
		Port: 64259,
	}
	if v := os.Getenv(EnvBeamNGPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Config holds the per-run settings. It is built once by NewConfig and only read
// afterwards; pass it by value.
type Config struct {
	// MaxTime is the simulated time budget in seconds.
	MaxTime float64 `json:"max_time" mapstructure:"max_time"`
	// ErrorOnOutOfTime turns an exhausted budget into an OutOfTimeError.
	ErrorOnOutOfTime bool `json:"error_on_out_of_time" mapstructure:"error_on_out_of_time"`
	// OutputPath is the directory run records are written below.
	OutputPath string `json:"output_path" mapstructure:"output_path"`
	// FPS is the physics step rate in steps per simulated second.
	FPS int `json:"fps" mapstructure:"fps"`
	// Logging enables the simulator's own per-vehicle logging.
	Logging bool `json:"logging" mapstructure:"logging"`
	// CloseOnDone tears down the simulator after a run.
	CloseOnDone bool `json:"close_on_done" mapstructure:"close_on_done"`
	// UseTechSensors enables the extended sensor set.
	UseTechSensors bool `json:"use_tech_sensors" mapstructure:"use_tech_sensors"`

	// BeamNG is persisted on its own, never inside config.json.
	BeamNG BeamNGConfig `json:"-" mapstructure:"bng_config"`
	// CarConfigs is not serializable.
	CarConfigs PartCatalog `json:"-" mapstructure:"-"`
}

// ConfigOption overrides one Config field.
type ConfigOption func(*Config)

// DefaultConfig returns a fresh Config with the base defaults.
func DefaultConfig() Config {
	return Config{
		MaxTime:     180,
		OutputPath:  "results",
		FPS:         60,
		CloseOnDone: true,
		BeamNG:      DefaultBeamNGConfig(),
	}
}

// NewConfig applies opts on top of DefaultConfig and validates the result.
func NewConfig(opts ...ConfigOption) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the Config invariants.
func (c Config) Validate() error {
	if c.FPS < MinFPS {
		return fmt.Errorf("%w: fps %d is less than minimum %d Hz", ErrInvalidConfig, c.FPS, MinFPS)
	}
	if c.MaxTime <= 0 {
		return fmt.Errorf("%w: max_time must be positive, got %g", ErrInvalidConfig, c.MaxTime)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output_path is empty", ErrInvalidConfig)
	}
	return nil
}

// MaxSteps is the step budget implied by MaxTime and FPS.
func (c Config) MaxSteps() float64 {
	return c.MaxTime * float64(c.FPS)
}

// WithMaxTime sets the simulated time budget in seconds.
func WithMaxTime(seconds float64) ConfigOption {
	return func(c *Config) { c.MaxTime = seconds }
}

// WithFPS sets the physics step rate.
func WithFPS(fps int) ConfigOption {
	return func(c *Config) { c.FPS = fps }
}

// WithErrorOnOutOfTime makes an exhausted budget fail the run.
func WithErrorOnOutOfTime(v bool) ConfigOption {
	return func(c *Config) { c.ErrorOnOutOfTime = v }
}

// WithOutputPath sets the directory run records are written below.
func WithOutputPath(path string) ConfigOption {
	return func(c *Config) { c.OutputPath = path }
}

// WithLogging enables the simulator's raw per-vehicle logs.
func WithLogging(v bool) ConfigOption {
	return func(c *Config) { c.Logging = v }
}

// WithCloseOnDone tears the simulator down after each run.
func WithCloseOnDone(v bool) ConfigOption {
	return func(c *Config) { c.CloseOnDone = v }
}

// WithTechSensors enables the extended sensor set.
func WithTechSensors(v bool) ConfigOption {
	return func(c *Config) { c.UseTechSensors = v }
}

// WithBeamNG sets the simulator connection config.
func WithBeamNG(b BeamNGConfig) ConfigOption {
	return func(c *Config) { c.BeamNG = b }
}

// WithCarConfigs sets the part config catalog.
func WithCarConfigs(catalog PartCatalog) ConfigOption {
	return func(c *Config) { c.CarConfigs = catalog }
}

// CrashTestConfig returns the crash test defaults. Later options win, so callers
// append their own overrides.
func CrashTestConfig() []ConfigOption {
	return []ConfigOption{
		WithMaxTime(20),
		WithFPS(100),
		WithCloseOnDone(false),
		WithOutputPath("crash_test_results"),
	}
}

// DragStripConfig returns the drag strip defaults.
func DragStripConfig() []ConfigOption {
	return []ConfigOption{
		WithCloseOnDone(false),
		WithOutputPath("drag_strip_results"),
	}
}

// TrackTestConfig returns the track test defaults.
func TrackTestConfig() []ConfigOption {
	return []ConfigOption{
		WithOutputPath("track_test_results"),
	}
}
