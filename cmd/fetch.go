package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/grizzly-cli/internal/config"
	"github.com/sells-group/grizzly-cli/internal/fetcher"
	"github.com/sells-group/grizzly-cli/internal/pipeline"
)

var fetchDir string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the raw mortality and population CSVs",
	Long:  "Downloads the two source datasets unchanged so later runs can read them through sources.mortality_file and sources.population_file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return fetchSources(ctx, cfg, pipeline.NewFetcher(cfg.Fetch), fetchDir, os.Stdout)
	},
}

func fetchSources(ctx context.Context, c *config.Config, f fetcher.Fetcher, dir string, w io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "fetch: create %s", dir)
	}

	targets := []struct {
		name string
		url  string
	}{
		{"mortality.csv", c.Sources.MortalityURL},
		{"population.csv", c.Sources.PopulationURL},
	}
	for _, t := range targets {
		if t.url == "" {
			return eris.Errorf("fetch: no url configured for %s", t.name)
		}
		path := filepath.Join(dir, t.name)
		n, err := f.DownloadToFile(ctx, t.url, path)
		if err != nil {
			return eris.Wrapf(err, "fetch: %s", t.name)
		}
		zap.L().Info("fetch: downloaded",
			zap.String("url", t.url),
			zap.String("path", path),
			zap.Int64("bytes", n),
		)
		fmt.Fprintf(w, "%s\t%d bytes\n", path, n) //nolint:errcheck
	}
	return nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "data", "directory to write the CSVs to")
	rootCmd.AddCommand(fetchCmd)
}
