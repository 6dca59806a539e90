package main

import (
	"fmt"

	"github.com/aretw0/bngenvs/pkg/cars"
	"github.com/aretw0/bngenvs/pkg/env"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type dimView struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description,omitempty"`
	Min         any    `yaml:"min,omitempty"`
	Max         any    `yaml:"max,omitempty"`
	Choices     []any  `yaml:"choices,omitempty"`
	Default     any    `yaml:"default"`
}

func newSpaceCmd() *cobra.Command {
	var carConfigs string
	cmd := &cobra.Command{
		Use:   "space <env>",
		Short: "Print an environment's parameter space as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := env.ParseKind(args[0])
			if err != nil {
				return err
			}
			var catalog *cars.Catalog
			if carConfigs != "" {
				if catalog, err = loadCatalog(carConfigs); err != nil {
					return err
				}
			}
			s, err := spaceFor(kind, catalog)
			if err != nil {
				return err
			}

			dims := make([]dimView, 0, len(s.Dims))
			for _, d := range s.Dims {
				v := dimView{Key: d.Key, Description: d.Description, Choices: d.Choices, Default: d.Default}
				if d.Continuous() {
					v.Min, v.Max = d.Min, d.Max
				}
				dims = append(dims, v)
			}
			data, err := yaml.Marshal(map[string]any{"env": s.Env, "dims": dims})
			if err != nil {
				return fmt.Errorf("failed to encode parameter space: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&carConfigs, "car-configs", "", "Part config catalog, required for crash_test")
	return cmd
}
