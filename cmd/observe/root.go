package main

import (
	"github.com/spf13/cobra"

	"observe/internal/observe/config"
)

// NewRootCommand builds the CLI. Running it without a subcommand serves.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "observe",
		Short:         "Demo HTTP service for exercising logs, traces and metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newSampleCommand())
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{Flags: cmd.Flags()})
}
