package main

import (
	"progress-hub/config"

	"github.com/spf13/cobra"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "progress-hub",
		Short: "Watch progress sync for Invidious accounts",
		Long: `progress-hub stores video watch progress for Invidious users and
authenticates them with their existing Invidious token or SID.

Example usage:
  progress-hub serve                 # Run the HTTP API and the hourly reconciliation
  progress-hub reconcile --dry-run   # List progress owned by deleted accounts
  progress-hub migrate up            # Create or upgrade the progress schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	config.RegisterFlags(root.PersistentFlags())

	serve := newServeCmd(opts)
	root.RunE = serve.RunE

	root.AddCommand(
		serve,
		newReconcileCmd(opts),
		newMigrateCmd(opts),
		newHealthcheckCmd(),
	)
	return root
}

func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.Options{EnvFile: o.envFile, Flags: cmd.Flags()})
}
