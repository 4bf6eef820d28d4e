package main

import (
	"fmt"

	"quickbar/config"
	"quickbar/internal/storage"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			cfg, log := opts.Config, opts.Log
			db := config.MustInitPostgres(cfg.Database, log)
			defer db.Close()

			m, err := storage.NewMigrator(db, cfg.Database.Name)
			if err != nil {
				return err
			}

			switch direction {
			case "up":
				return storage.MigrateUp(m, log)
			case "down":
				return storage.MigrateDown(m, steps, log)
			}
			return fmt.Errorf("unknown direction %q", direction)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "migrations to roll back with down")

	return cmd
}
