package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/linkvault/internal/app"
	"github.com/MrSnakeDoc/linkvault/internal/config"
	"github.com/MrSnakeDoc/linkvault/internal/domain"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
	"github.com/MrSnakeDoc/linkvault/internal/sources/homepage"
	"github.com/MrSnakeDoc/linkvault/internal/sources/netscape"
	"github.com/MrSnakeDoc/linkvault/internal/utils"
	"github.com/MrSnakeDoc/linkvault/internal/version"
)

var errUnknownFormat = errors.New("unknown format")

const (
	formatNetscape         = "netscape"
	formatHomepage         = "homepage"
	formatHomepageServices = "homepage-services"
)

func loadConfig() (*config.Config, logger.Logger) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and redirect server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := loadConfig()
			defer func() { _ = log.Sync() }()

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
}

func importCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import bookmarks from a Netscape HTML or Homepage YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args[0], format)
			if err != nil {
				return err
			}

			cfg, log := loadConfig()
			defer func() { _ = log.Sync() }()

			a, err := app.Offline(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res, err := a.Bookmarks().Import(cmd.Context(), records)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added: %d\nSkipped: %d (invalid: %d, duplicate: %d)\n",
				res.Added, res.Skipped(), res.SkippedInvalid, res.SkippedDuplicate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatNetscape,
		"input format: netscape, homepage, homepage-services")
	return cmd
}

func readRecords(path, format string) ([]domain.Record, error) {
	switch format {
	case formatNetscape:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer utils.Close(f)
		return netscape.Parse(f)
	case formatHomepage:
		return homepage.NewLoader(path).LoadBookmarks()
	case formatHomepageServices:
		return homepage.NewLoader(path).LoadServices()
	default:
		return nil, fmt.Errorf("%w %q", errUnknownFormat, format)
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export every bookmark as a Netscape HTML file (\"-\" for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := loadConfig()
			defer func() { _ = log.Sync() }()

			a, err := app.Offline(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			records, err := a.Bookmarks().Export(cmd.Context())
			if err != nil {
				return err
			}

			if args[0] == "-" {
				return netscape.Write(cmd.OutOrStdout(), records)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := netscape.Write(f, records); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d bookmarks to %s\n", len(records), args[0])
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
