package main

import (
	"github.com/openmetagraph/metacat/internal/config"
	"github.com/openmetagraph/metacat/internal/db"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return db.RunMigrations(cfg.Database, migrationsPath)
		},
	}

	cmd.Flags().StringVar(&migrationsPath, "migrations", "./migrations", "directory containing migration files")
	return cmd
}
