package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/linkvault/internal/app"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or flush the redis redirect cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List cached short codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := loadConfig()
			defer func() { _ = log.Sync() }()

			cache, closeFn, err := app.OpenCache(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			codes, err := cache.Codes(cmd.Context())
			if err != nil {
				return err
			}
			for _, code := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Drop every cached redirect (the database is untouched)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := loadConfig()
			defer func() { _ = log.Sync() }()

			cache, closeFn, err := app.OpenCache(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			n, err := cache.Flush(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Flushed %d cached redirects\n", n)
			return nil
		},
	})

	return cmd
}
