package main

import (
	"github.com/spf13/cobra"

	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/logging"
)

func newMigrateCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, name := range migration.StepNames() {
					cmd.Println(name)
				}
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := logging.New("migrate")
			db, err := database.NewPostgres(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return migration.EnsureMigrated(cmd.Context(), db, logger, cfg.Database.Host)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "Print the migration steps without running them")
	return cmd
}
