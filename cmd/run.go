package main

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/grizzly-cli/internal/aggregate"
	"github.com/sells-group/grizzly-cli/internal/config"
	"github.com/sells-group/grizzly-cli/internal/pipeline"
)

var runOut string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline and render the density map",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runOut != "" {
			cfg.Render.Output = runOut
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runPipeline(ctx, cfg, os.Stdout)
	},
}

// runSummary is printed to stdout after a run.
type runSummary struct {
	PopulationMeta   string           `json:"population_meta"`
	MortalityRecords int              `json:"mortality_records"`
	Units            []unitSummary    `json:"units"`
	Features         int              `json:"features"`
	Substituted      int              `json:"substituted"`
	Unmatched        []string         `json:"unmatched,omitempty"`
	Output           string           `json:"output,omitempty"`
	Phases           []pipeline.Phase `json:"phases"`
}

// unitSummary carries a unit's density as null when it is not finite.
type unitSummary struct {
	GBPU      string   `json:"gbpu"`
	Estimate  float64  `json:"estimate"`
	TotalArea float64  `json:"total_area"`
	Density   *float64 `json:"density"`
}

func summarizeUnits(units []aggregate.Unit) []unitSummary {
	out := make([]unitSummary, len(units))
	for i, u := range units {
		out[i] = unitSummary{GBPU: u.GBPU, Estimate: u.Estimate, TotalArea: u.TotalArea}
		if !math.IsInf(u.Density, 0) && !math.IsNaN(u.Density) {
			d := u.Density
			out[i].Density = &d
		}
	}
	return out
}

func runPipeline(ctx context.Context, c *config.Config, w io.Writer) error {
	p := pipeline.New(c, pipeline.NewFetcher(c.Fetch))
	res, err := p.Run(ctx)
	if err != nil {
		return eris.Wrap(err, "pipeline run")
	}

	if c.Render.Output != "" {
		if err := writeMap(res, c.Render.Output); err != nil {
			return err
		}
		zap.L().Info("map written", zap.String("path", c.Render.Output))
	}

	summary := runSummary{
		PopulationMeta:   res.PopulationMeta,
		MortalityRecords: len(res.Mortality.Records),
		Units:            summarizeUnits(res.Reconcile.Units),
		Features:         len(res.Features),
		Substituted:      res.Reconcile.Substituted,
		Unmatched:        res.Map.Unmatched,
		Output:           c.Render.Output,
		Phases:           res.Phases,
	}

	// Print result JSON to stdout
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func writeMap(res *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if _, err := res.Map.WriteTo(f); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "write map %s", path)
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func init() {
	runCmd.Flags().StringVar(&runOut, "out", "", "write the rendered map to this PNG file")
	rootCmd.AddCommand(runCmd)
}
