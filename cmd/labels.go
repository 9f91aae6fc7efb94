package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/grizzly-cli/internal/config"
	"github.com/sells-group/grizzly-cli/internal/pipeline"
	"github.com/sells-group/grizzly-cli/internal/reconcile"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Compare population unit labels between the estimates and the map layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}
		return labelReport(ctx, cfg, os.Stdout)
	},
}

// labelsSummary is the label reconciliation report.
type labelsSummary struct {
	Before      reconcile.Diff           `json:"before"`
	After       reconcile.Diff           `json:"after"`
	Substituted int                      `json:"substituted"`
	Rules       []reconcile.Substitution `json:"substitutions"`
}

// labelReport prints the report even when the labels still differ, then
// returns the mismatch.
func labelReport(ctx context.Context, c *config.Config, w io.Writer) error {
	p := pipeline.New(c, pipeline.NewFetcher(c.Fetch))
	res, err := p.Labels(ctx)
	if res.Reconcile == nil {
		return eris.Wrap(err, "labels")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(labelsSummary{
		Before:      res.Reconcile.Before,
		After:       res.Reconcile.After,
		Substituted: res.Reconcile.Substituted,
		Rules:       c.Reconcile.Substitutions,
	}); encErr != nil {
		return eris.Wrap(encErr, "labels: encode report")
	}
	return eris.Wrap(err, "labels")
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
