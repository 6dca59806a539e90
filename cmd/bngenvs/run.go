package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/bngenvs/pkg/env"
	"github.com/aretw0/bngenvs/pkg/observability"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [env]",
		Short: "Run one environment to completion",
		Long: `Runs one crash_test, drag_strip or track_test environment and saves its run record.
The summary results are printed as JSON on stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := newPlan(cmd, args, &f)
			if err != nil {
				return err
			}
			cfg, err := p.config()
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

			opts := []env.Option{
				env.WithLogger(a.logger),
				env.WithHooks(observability.Hooks(a.logger, nil)),
			}
			if idx != nil {
				opts = append(opts, env.WithIndex(idx))
			}
			e, err := env.New(p.kind, p.paramsFor(0), cfg, connect, opts...)
			if err != nil {
				return err
			}

			res, _, err := e.Run(ctx, nil)
			if err != nil {
				return err
			}

			out := map[string]any{
				"env":     e.Name(),
				"run_id":  e.Record().RunID,
				"path":    e.Record().Path(),
				"results": res,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("failed to print results: %w", err)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
