package main

import (
	"github.com/spf13/cobra"
)

var configPath string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metacat",
		Short: "Metadata catalog service",
		Long:  "metacat registers and serves metadata elements describing data assets and the relationships between them.",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	return cmd
}
