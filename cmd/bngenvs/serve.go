package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/bngenvs/internal/presentation/tui"
	httpAdapter "github.com/aretw0/bngenvs/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		port   string
		banner bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run index over HTTP",
		Long: `Starts a read-only HTTP API over the run index: run entries, their results,
scalars, time series and raw logs, plus prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, closeIndex, err := a.openIndex(ctx, nil)
			if err != nil {
				return err
			}
			defer closeIndex()
			if idx == nil {
				return errNoIndex
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			srv := &http.Server{
				Addr: ":" + port,
				Handler: httpAdapter.NewHandler(idx,
					httpAdapter.WithLogger(a.logger),
					httpAdapter.WithGatherer(reg)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			if banner {
				tui.PrintBanner(cmd.ErrOrStderr())
			}

			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", "addr", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			case sig := <-shutdown:
				a.logger.Info("start shutdown", "signal", sig.String())
			case <-ctx.Done():
				a.logger.Info("start shutdown", "reason", ctx.Err())
			}

			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				a.logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to stop server: %w", err)
				}
			}
			a.logger.Info("server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")
	cmd.Flags().BoolVar(&banner, "banner", true, "Print the banner on start")
	return cmd
}
