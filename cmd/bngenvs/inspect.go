package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/bngenvs/internal/presentation/tui"
	"github.com/aretw0/bngenvs/pkg/env"
	"github.com/aretw0/bngenvs/pkg/results"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		envName    string
		timeseries bool
		rawlogs    bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <record>",
		Short: "Show a saved run record",
		Long: `Loads the run record at <record> and prints a summary of it. The path may also be
an experiment tracking run directory whose record lives in its artifacts directory.
--timeseries and --rawlogs print the record's tables as CSV instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := env.ParseKind(envName)
			if err != nil {
				return err
			}
			rec, err := results.Load(args[0], kind, results.WithLogger(a.logger))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case timeseries:
				t, err := rec.TimeSeries()
				if err != nil {
					return err
				}
				return t.WriteCSV(out)
			case rawlogs:
				t, ok, err := rec.RawLogs()
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("record %s has no raw logs", rec.RunID)
				}
				return t.WriteCSV(out)
			case asJSON:
				scalars, err := rec.ScalarMap()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(scalars)
			}

			md, err := tui.RecordMarkdown(rec)
			if err != nil {
				return err
			}
			if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				width, _, err := term.GetSize(int(f.Fd()))
				if err != nil || width <= 0 {
					width = 80
				}
				if rendered, err := tui.NewRenderer(width)(md); err == nil {
					md = rendered
				}
			}
			_, err = fmt.Fprint(out, md)
			return err
		},
	}
	cmd.Flags().StringVarP(&envName, "env", "e", "", "Environment that wrote the record")
	cmd.Flags().BoolVar(&timeseries, "timeseries", false, "Print the per-step time series as CSV")
	cmd.Flags().BoolVar(&rawlogs, "rawlogs", false, "Print the simulator's raw logs as CSV")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the flattened scalars as JSON")
	cmd.MarkFlagsMutuallyExclusive("timeseries", "rawlogs", "json")
	_ = cmd.MarkFlagRequired("env")
	return cmd
}
