package main

import (
	"github.com/spf13/cobra"

	"github.com/plus3/gravgrid/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration gravgrid would run with, after the search order
(--config, ~/.gravgrid/config.yaml, ./configs/gravgrid.yaml, embedded default)
and flag overrides are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
