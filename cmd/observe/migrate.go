package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"observe/internal/observe/store/sqlite"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations and report the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := sqlite.Open(cmd.Context(), cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer store.Close()

			version, err := sqlite.SchemaVersion(cmd.Context(), store.DB())
			if err != nil {
				return err
			}
			if latest := sqlite.CurrentSchemaVersion(); version != latest {
				return fmt.Errorf("%s: schema version %d, expected %d", store.Path(), version, latest)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", store.Path(), version)
			return nil
		},
	}
}
