package main

import (
	"progress-hub/internal/db/migrate"
	"progress-hub/internal/output"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the progress schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			p := output.NewPrinter()
			direction := args[0]
			if direction == "down" {
				p.Warning("rolling back drops every stored watch progress record")
			}
			if err := migrate.Run(cfg.DatabaseURL, direction); err != nil {
				p.Error("migrate %s failed", direction)
				return err
			}
			p.Success("migrate %s complete", direction)
			return nil
		},
	}
}
