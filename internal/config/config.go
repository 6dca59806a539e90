// Package config loads run files and .env files for the command line.
//
// A run file is YAML or JSON:
//
//	env: track_test
//	params:
//	  $brakestrength: 0.8
//	config:
//	  max_time: 60
//	  logging: true
//	  bng_config:
//	    host: 192.168.0.10
//	car_configs: ./cars/cars_and_configs.json
//	workers:
//	  count: 2
//	  start_port: 58000
//	index:
//	  sqlite: runs.db
//	  redis: redis://localhost:6379/0
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Workers describes the local simulator worker pool.
type Workers struct {
	Count     int    `mapstructure:"count" yaml:"count"`
	StartPort int    `mapstructure:"start_port" yaml:"start_port"`
	Host      string `mapstructure:"host" yaml:"host"`
}

// Index selects the run index backends.
type Index struct {
	SQLite string `mapstructure:"sqlite" yaml:"sqlite"`
	Redis  string `mapstructure:"redis" yaml:"redis"`
}

// File is a decoded run file.
type File struct {
	Env        string         `mapstructure:"env"`
	Params     map[string]any `mapstructure:"params"`
	Config     map[string]any `mapstructure:"config"`
	CarConfigs string         `mapstructure:"car_configs"`
	Workers    Workers        `mapstructure:"workers"`
	Index      Index          `mapstructure:"index"`

	// Dir is the directory of the file; relative paths in it resolve against Dir.
	Dir string `mapstructure:"-"`
}

// Load reads and decodes the run file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	f.Dir = abs
	return f, nil
}

// Parse decodes a run file. ext selects JSON for ".json"; anything else is YAML.
func Parse(data []byte, ext string) (*File, error) {
	var raw map[string]any
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &f,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return &f, nil
}

// Resolve makes p absolute relative to the run file's directory.
func (f *File) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || f.Dir == "" {
		return p
	}
	return filepath.Join(f.Dir, p)
}

// overrides mirrors domain.Config; nil fields keep the environment's default.
type overrides struct {
	MaxTime          *float64       `mapstructure:"max_time"`
	FPS              *int           `mapstructure:"fps"`
	ErrorOnOutOfTime *bool          `mapstructure:"error_on_out_of_time"`
	OutputPath       *string        `mapstructure:"output_path"`
	Logging          *bool          `mapstructure:"logging"`
	CloseOnDone      *bool          `mapstructure:"close_on_done"`
	UseTechSensors   *bool          `mapstructure:"use_tech_sensors"`
	BeamNG           map[string]any `mapstructure:"bng_config"`
}

// ConfigOptions turns the config section into options applied over the
// environment's defaults. The connection config starts from the BEAMNG_*
// environment variables, so load .env files first.
func (f *File) ConfigOptions() ([]domain.ConfigOption, error) {
	var o overrides
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &o,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(f.Config); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	var opts []domain.ConfigOption
	if o.MaxTime != nil {
		opts = append(opts, domain.WithMaxTime(*o.MaxTime))
	}
	if o.FPS != nil {
		opts = append(opts, domain.WithFPS(*o.FPS))
	}
	if o.ErrorOnOutOfTime != nil {
		opts = append(opts, domain.WithErrorOnOutOfTime(*o.ErrorOnOutOfTime))
	}
	if o.OutputPath != nil {
		opts = append(opts, domain.WithOutputPath(f.Resolve(*o.OutputPath)))
	}
	if o.Logging != nil {
		opts = append(opts, domain.WithLogging(*o.Logging))
	}
	if o.CloseOnDone != nil {
		opts = append(opts, domain.WithCloseOnDone(*o.CloseOnDone))
	}
	if o.UseTechSensors != nil {
		opts = append(opts, domain.WithTechSensors(*o.UseTechSensors))
	}

	bng := domain.DefaultBeamNGConfig()
	if o.BeamNG != nil {
		if err := mapstructure.WeakDecode(o.BeamNG, &bng); err != nil {
			return nil, fmt.Errorf("%w: bng_config: %w", domain.ErrInvalidConfig, err)
		}
	}
	opts = append(opts, domain.WithBeamNG(bng))
	return opts, nil
}

// LoadDotEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
