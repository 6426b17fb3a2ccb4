package main

import (
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "linkvault",
		Short:         "Personal bookmark manager with short redirect codes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides LINKVAULT_DB_PATH)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
