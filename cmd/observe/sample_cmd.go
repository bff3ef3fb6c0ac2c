package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"observe/internal/observe/config"
	"observe/internal/observe/core"
	"observe/internal/observe/store/sqlite"
)

func newSampleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Inspect stored sample records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Print one sample record from the SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid sample id %q", args[0])
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.StoreSQLite {
				return fmt.Errorf("sample get: store %q keeps no records between runs", cfg.StoreDriver)
			}
			opened, err := sqlite.Open(cmd.Context(), cfg.SQLitePath)
			if err != nil {
				return err
			}
			var store core.SampleStore = opened
			defer store.Close()

			rec, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", rec.ID, rec.String(), rec.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	})
	return cmd
}
