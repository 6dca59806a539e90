package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/aretw0/bngenvs/internal/config"
	"github.com/aretw0/bngenvs/pkg/cars"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/env"
	"github.com/aretw0/bngenvs/pkg/paramspace"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// runFlags are the flags shared by run and batch.
type runFlags struct {
	file       string
	params     map[string]string
	maxTime    float64
	fps        int
	output     string
	logging    bool
	carConfigs string
	sample     bool
	seed       uint64
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "Run file (YAML or JSON)")
	fl.StringToStringVarP(&f.params, "param", "p", nil, "Parameter key=value, repeatable")
	fl.Float64Var(&f.maxTime, "max-time", 0, "Simulated time budget, seconds")
	fl.IntVar(&f.fps, "fps", 0, "Physics steps per simulated second")
	fl.StringVarP(&f.output, "output", "o", "", "Directory run records are written below")
	fl.BoolVar(&f.logging, "logging", false, "Collect the simulator's raw logs")
	fl.StringVar(&f.carConfigs, "car-configs", "", "Part config catalog: a cars_and_configs.json or its directory")
	fl.BoolVar(&f.sample, "sample", false, "Sample unset parameters from the environment's space")
	fl.Uint64Var(&f.seed, "seed", 1, "Seed for --sample")
}

// plan is everything needed to build environments of one kind.
type plan struct {
	kind    string
	file    *config.File
	cfgOpts []domain.ConfigOption
	catalog *cars.Catalog
	space   paramspace.Space
	params  domain.Params
	sample  bool
	seed    uint64
}

// newPlan resolves the environment kind, run file, flags and catalog.
func newPlan(cmd *cobra.Command, args []string, f *runFlags) (*plan, error) {
	file := &config.File{}
	if f.file != "" {
		var err error
		if file, err = config.Load(f.file); err != nil {
			return nil, err
		}
	}

	name := file.Env
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		return nil, fmt.Errorf("no environment given, expected one of %v", env.Kinds())
	}
	kind, err := env.ParseKind(name)
	if err != nil {
		return nil, err
	}

	p := &plan{kind: kind, file: file, sample: f.sample, seed: f.seed}
	if p.cfgOpts, err = file.ConfigOptions(); err != nil {
		return nil, err
	}
	fl := cmd.Flags()
	if fl.Changed("max-time") {
		p.cfgOpts = append(p.cfgOpts, domain.WithMaxTime(f.maxTime))
	}
	if fl.Changed("fps") {
		p.cfgOpts = append(p.cfgOpts, domain.WithFPS(f.fps))
	}
	if fl.Changed("output") {
		p.cfgOpts = append(p.cfgOpts, domain.WithOutputPath(f.output))
	}
	if fl.Changed("logging") {
		p.cfgOpts = append(p.cfgOpts, domain.WithLogging(f.logging))
	}

	catalogPath := f.carConfigs
	if catalogPath == "" {
		catalogPath = file.Resolve(file.CarConfigs)
	}
	if catalogPath != "" {
		if p.catalog, err = loadCatalog(catalogPath); err != nil {
			return nil, err
		}
		p.cfgOpts = append(p.cfgOpts, domain.WithCarConfigs(p.catalog))
	}

	if p.space, err = spaceFor(kind, p.catalog); err != nil {
		return nil, err
	}

	p.params = domain.Params{}
	for k, v := range file.Params {
		p.params[k] = v
	}
	for k, v := range f.params {
		p.params[k] = scalar(v)
	}
	return p, nil
}

// config builds the run config, optionally bound to a worker's connection.
func (p *plan) config(extra ...domain.ConfigOption) (domain.Config, error) {
	opts := append(append([]domain.ConfigOption(nil), p.cfgOpts...), extra...)
	return env.Config(p.kind, opts...)
}

// paramsFor returns the parameters of run i. Explicit parameters always win; the rest
// come from the space's defaults, or from a sample when sampling.
func (p *plan) paramsFor(i int) domain.Params {
	var base domain.Params
	if p.sample {
		base = p.space.Sample(rand.New(rand.NewPCG(p.seed, uint64(i))))
	} else {
		base = p.space.Defaults()
	}
	for k, v := range p.params {
		base[k] = v
	}
	return base
}

func spaceFor(kind string, catalog *cars.Catalog) (paramspace.Space, error) {
	switch kind {
	case env.CrashTestEnv:
		if catalog == nil {
			return paramspace.Space{}, fmt.Errorf("crash test needs --car-configs: %w", domain.ErrMissingCatalog)
		}
		return paramspace.CrashTest(catalog)
	case env.TrackTestEnv:
		return paramspace.TrackTest(), nil
	default:
		return paramspace.DragStrip(nil), nil
	}
}

func loadCatalog(path string) (*cars.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open part config catalog: %w", err)
	}
	if info.IsDir() {
		return cars.LoadDir(path)
	}
	return cars.Load(path)
}

// scalar types a command line value the way YAML would.
func scalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	switch v.(type) {
	case int, float64, bool, string:
		return v
	}
	return s
}
