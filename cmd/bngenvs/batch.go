package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	httpAdapter "github.com/aretw0/bngenvs/pkg/adapters/http"
	"github.com/aretw0/bngenvs/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/bngenvs/pkg/adapters/redis"
	"github.com/aretw0/bngenvs/pkg/env"
	"github.com/aretw0/bngenvs/pkg/observability"
	"github.com/aretw0/bngenvs/pkg/ports"
	"github.com/aretw0/bngenvs/pkg/workerpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type batchFlags struct {
	runFlags
	runs      int
	jobs      int
	workers   int
	startPort int
	userPath  string
	serve     string
}

func newBatchCmd(a *app) *cobra.Command {
	var f batchFlags
	cmd := &cobra.Command{
		Use:   "batch [env]",
		Short: "Run many environments across a pool of simulator instances",
		Long: `Runs -n environments, at most --jobs at a time, each on a worker of the pool.
Parameters are sampled per run with --sample. With --serve the run index, live run
events and metrics are served over HTTP while the batch runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.batch(cmd, args, &f)
		},
	}
	f.register(cmd)
	fl := cmd.Flags()
	fl.IntVarP(&f.runs, "runs", "n", 1, "Number of runs")
	fl.IntVarP(&f.jobs, "jobs", "j", 0, "Concurrent runs (default: one per worker)")
	fl.IntVar(&f.workers, "workers", 0, "Simulator instances in the pool (default 1)")
	fl.IntVar(&f.startPort, "start-port", 0, "Port of the first worker")
	fl.StringVar(&f.userPath, "user-path", "", "Root of the per-worker user directories (default <output>/workers)")
	fl.StringVar(&f.serve, "serve", "", "Serve the HTTP API on this address while running")
	return cmd
}

func (a *app) batch(cmd *cobra.Command, args []string, f *batchFlags) error {
	ctx := cmd.Context()
	p, err := newPlan(cmd, args, &f.runFlags)
	if err != nil {
		return err
	}
	base, err := p.config()
	if err != nil {
		return err
	}
	connect, err := a.connector()
	if err != nil {
		return err
	}

	idx, closeIndex, err := a.openIndex(ctx, p.file)
	if err != nil {
		return err
	}
	defer closeIndex()
	if idx == nil {
		idx = memory.NewIndex()
	}

	pool, closePool, err := a.newPool(p, f, base.OutputPath)
	if err != nil {
		return err
	}
	defer closePool()

	metrics := observability.NewMetrics()
	metrics.WatchPool(pool)
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return err
	}
	hooks := observability.Hooks(a.logger, metrics)

	if f.serve != "" {
		streams := httpAdapter.NewStreamManager(a.logger)
		hooks = hooks.Merge(streams.Hooks(false))
		srv := &http.Server{
			Addr: f.serve,
			Handler: httpAdapter.NewHandler(idx,
				httpAdapter.WithLogger(a.logger),
				httpAdapter.WithGatherer(reg),
				httpAdapter.WithStreams(streams)),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("server error", "err", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		a.logger.Info("serving", "addr", f.serve)
	}

	jobs := f.jobs
	if jobs <= 0 {
		jobs = pool.Len()
	}

	var finished, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range f.runs {
		g.Go(func() error {
			w, err := pool.Acquire(gctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := pool.Release(context.WithoutCancel(gctx), w); err != nil {
					a.logger.Warn("failed to release worker", "worker", w.String(), "err", err)
				}
			}()

			cfg := base
			cfg.BeamNG = w.BeamNGConfig(base.BeamNG)
			e, err := env.New(p.kind, p.paramsFor(i), cfg, connect,
				env.WithLogger(a.logger.With("worker", w.String())),
				env.WithIndex(idx),
				env.WithHooks(hooks))
			if err != nil {
				return err
			}
			res, _, err := e.Run(gctx, nil)
			if err != nil {
				// One failed run does not stop the batch.
				failed.Add(1)
				return nil
			}
			if done, _ := res["finished"].(bool); done {
				finished.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d runs: %d finished, %d unfinished, %d failed\n",
		f.runs, finished.Load(), int64(f.runs)-finished.Load()-failed.Load(), failed.Load())
	if failed.Load() > 0 {
		return fmt.Errorf("%d of %d runs failed", failed.Load(), f.runs)
	}
	return nil
}

// newPool builds the worker pool from the flags, falling back to the run file. With a
// redis url the workers are also leased through redis.
func (a *app) newPool(p *plan, f *batchFlags, output string) (*workerpool.Pool, func() error, error) {
	n, startPort, host := f.workers, f.startPort, p.file.Workers.Host
	if n <= 0 {
		n = p.file.Workers.Count
	}
	if n <= 0 {
		n = 1
	}
	if startPort == 0 {
		startPort = p.file.Workers.StartPort
	}
	userPath := f.userPath
	if userPath == "" {
		userPath = filepath.Join(output, "workers")
	}

	opts := []workerpool.Option{workerpool.WithLogger(a.logger)}
	if host != "" {
		opts = append(opts, workerpool.WithHost(host))
	}
	closer := func() error { return nil }
	redisURL := a.redisURL
	if redisURL == "" {
		redisURL = p.file.Index.Redis
	}
	if redisURL != "" {
		client, err := redisAdapter.Dial(redisURL)
		if err != nil {
			return nil, nil, err
		}
		var locker ports.DistributedLocker = redisAdapter.NewLocker(client, "bngenvs:")
		opts = append(opts, workerpool.WithLocker(locker, 0))
		closer = client.Close
	}
	return workerpool.New(userPath, n, startPort, opts...), closer, nil
}
