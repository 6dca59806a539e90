package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/bngenvs/internal/presentation/tui"
	"github.com/aretw0/bngenvs/pkg/env"
	"github.com/spf13/cobra"
)

var errNoIndex = errors.New("no run index configured, use --sqlite or --redis-url")

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Query the run index",
	}

	var envName string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List indexed runs in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if envName != "" {
				kind, err := env.ParseKind(envName)
				if err != nil {
					return err
				}
				envName = kind
			}
			idx, closeIndex, err := a.openIndex(ctx, nil)
			if err != nil {
				return err
			}
			defer closeIndex()
			if idx == nil {
				return errNoIndex
			}
			entries, err := idx.List(ctx, envName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tENV\tSTATUS\tCREATED\tPATH")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.RunID, e.Env, tui.Status(out, e.Complete, e.Finished),
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Path)
			}
			return tw.Flush()
		},
	}
	ls.Flags().StringVarP(&envName, "env", "e", "", "Only list runs of this environment")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one index entry as JSON",
		Args:  cobra.ExactArgs(1),
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
			entry, err := idx.Get(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}

	cmd.AddCommand(ls, show)
	return cmd
}
