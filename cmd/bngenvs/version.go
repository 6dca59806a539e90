package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/bngenvs"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bngenvs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bngenvs version %s (simulator data %s)\n",
				strings.TrimSpace(bngenvs.Version), bngenvs.SimulatorDataVersion)
		},
	}
}
