package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/bngenvs/internal/config"
	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/adapters/fake"
	redisAdapter "github.com/aretw0/bngenvs/pkg/adapters/redis"
	"github.com/aretw0/bngenvs/pkg/adapters/sqlite"
	"github.com/aretw0/bngenvs/pkg/paradigm"
	"github.com/aretw0/bngenvs/pkg/ports"
	"github.com/aretw0/bngenvs/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app holds the state shared by every command.
type app struct {
	logger *slog.Logger
	sims   *registry.Registry

	logLevel  string
	logFormat string
	envFiles  []string
	simulator string
	simOpts   map[string]string
	sqlite    string
	redisURL  string
}

func newRootCmd() *cobra.Command {
	a := &app{sims: simulators(), logger: logging.NewNop()}

	root := &cobra.Command{
		Use:           "bngenvs",
		Short:         "bngenvs runs automated vehicle simulator test environments",
		Long:          `bngenvs drives crash test, drag strip and track test scenarios against a simulator, records per-step telemetry and keeps every run as a record on disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(a.envFiles...); err != nil {
				return err
			}
			a.logger = newLogger(a.logLevel, a.logFormat, cmd.ErrOrStderr())
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	f.StringVar(&a.logFormat, "log-format", "auto", "Log format: auto, text or json")
	f.StringSliceVar(&a.envFiles, "env-file", nil, "Load environment variables from these .env files (default .env)")
	f.StringVar(&a.simulator, "simulator", "fake", "Simulator backend")
	f.StringToStringVar(&a.simOpts, "sim-opt", nil, "Backend option key=value, repeatable")
	f.StringVar(&a.sqlite, "sqlite", "", "Index runs in this sqlite database")
	f.StringVar(&a.redisURL, "redis-url", "", "Index runs in redis and lease workers through it")

	root.AddCommand(
		newRunCmd(a),
		newBatchCmd(a),
		newInspectCmd(a),
		newRunsCmd(a),
		newSpaceCmd(),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// newLogger picks the terminal handler for interactive stderr and JSON otherwise.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	lvl := logging.ParseLevel(level)
	switch format {
	case "json":
		return logging.NewJSON(lvl, w)
	case "text":
		return logging.New(lvl, w)
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return logging.New(lvl, w)
	}
	return logging.NewJSON(lvl, w)
}

type fakeOptions struct {
	CruiseMPS float64 `mapstructure:"cruise_mps"`
	LogRoot   string  `mapstructure:"log_root"`
}

// simulators registers the built-in backends. The fake backend knows the track test
// route so every environment can run against it.
func simulators() *registry.Registry {
	r := registry.NewRegistry()
	r.Register("fake", func(opts map[string]any) (ports.Connector, error) {
		var o fakeOptions
		if err := mapstructure.WeakDecode(opts, &o); err != nil {
			return nil, fmt.Errorf("invalid fake simulator options: %w", err)
		}
		fo := []fake.Option{fake.WithWaypoints(paradigm.TrackTestRoute...)}
		if o.CruiseMPS > 0 {
			fo = append(fo, fake.WithCruiseSpeed(o.CruiseMPS))
		}
		if o.LogRoot != "" {
			fo = append(fo, fake.WithLogRoot(o.LogRoot))
		}
		return fake.NewConnector(fo...), nil
	})
	return r
}

func (a *app) connector() (ports.Connector, error) {
	opts := make(map[string]any, len(a.simOpts))
	for k, v := range a.simOpts {
		opts[k] = v
	}
	return a.sims.Connector(a.simulator, opts)
}

// openIndex opens the configured run index. file settings apply when no flag is
// given. The returned close func is never nil.
func (a *app) openIndex(ctx context.Context, file *config.File) (ports.RunIndex, func() error, error) {
	sqlitePath, redisURL := a.sqlite, a.redisURL
	if file != nil {
		if sqlitePath == "" {
			sqlitePath = file.Resolve(file.Index.SQLite)
		}
		if redisURL == "" {
			redisURL = file.Index.Redis
		}
	}

	switch {
	case sqlitePath != "":
		idx, err := sqlite.Open(ctx, sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil
	case redisURL != "":
		client, err := redisAdapter.Dial(redisURL)
		if err != nil {
			return nil, nil, err
		}
		idx := redisAdapter.NewIndex(client)
		return idx, idx.Close, nil
	}
	return nil, func() error { return nil }, nil
}
