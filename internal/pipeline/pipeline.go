// Package pipeline runs the load, clean, aggregate, reconcile and render
// stages in order and keeps every intermediate product.
package pipeline

import (
	"context"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/sells-group/grizzly-cli/internal/aggregate"
	"github.com/sells-group/grizzly-cli/internal/choropleth"
	"github.com/sells-group/grizzly-cli/internal/config"
	"github.com/sells-group/grizzly-cli/internal/fetcher"
	"github.com/sells-group/grizzly-cli/internal/reconcile"
	"github.com/sells-group/grizzly-cli/internal/source"
	"github.com/sells-group/grizzly-cli/internal/spatial"
	"github.com/sells-group/grizzly-cli/internal/table"
	"github.com/sells-group/grizzly-cli/internal/tidy"
)

// PhaseStatus is the outcome of one stage.
type PhaseStatus string

const (
	// PhaseStatusComplete marks a stage that returned without error.
	PhaseStatusComplete PhaseStatus = "complete"
	// PhaseStatusFailed marks the stage that stopped the run.
	PhaseStatusFailed PhaseStatus = "failed"
)

// Phase records the timing and outcome of one stage.
type Phase struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// Result holds every intermediate product of a run.
type Result struct {
	Mortality      *tidy.Mortality
	Population     *table.Table
	PopulationMeta string
	Units          []aggregate.Unit
	Features       []spatial.Feature
	Reconcile      *reconcile.Result
	Vertices       []choropleth.MapVertex
	Map            *choropleth.Map
	Phases         []Phase
}

// Pipeline wires configuration and a fetcher to the stages.
type Pipeline struct {
	cfg     *config.Config
	fetcher fetcher.Fetcher
}

// New creates a Pipeline.
func New(cfg *config.Config, f fetcher.Fetcher) *Pipeline {
	return &Pipeline{cfg: cfg, fetcher: f}
}

// NewFetcher builds the HTTP fetcher described by the fetch settings.
func NewFetcher(cfg config.FetchConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.UserAgent,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxAttempts: cfg.MaxRetries,
	})
}

// tracker times stages and appends them to the result.
type tracker struct {
	log    *zap.Logger
	result *Result
}

func (t *tracker) track(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()

	phase := Phase{Name: name, Duration: duration, Status: PhaseStatusComplete}
	if err != nil {
		phase.Status = PhaseStatusFailed
		phase.Error = err.Error()
		t.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
	} else {
		t.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
		)
	}
	t.result.Phases = append(t.result.Phases, phase)
	return err
}

// Run executes every stage and renders the map. The returned Result holds
// the products of the stages that completed, even on error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("layer", p.cfg.Spatial.Layer))
	log.Info("pipeline: starting run")

	result := &Result{}
	tr := &tracker{log: log, result: result}

	unused, err := p.unusedPattern()
	if err != nil {
		return result, err
	}

	if err := tr.track("mortality", func() error {
		t, err := p.loadTable(ctx, p.cfg.Sources.MortalityFile, p.cfg.Sources.MortalityURL)
		if err != nil {
			return eris.Wrap(err, "pipeline: load mortality")
		}
		result.Mortality, err = tidy.CleanMortality(t, tidy.MortalityOptions{
			UnusedPattern: unused,
			AgeColumn:     p.cfg.Clean.AgeColumn,
			AgeSeparator:  p.cfg.Clean.AgeSeparator,
		})
		return eris.Wrap(err, "pipeline: clean mortality")
	}); err != nil {
		return result, err
	}

	if err := p.loadPopulation(ctx, tr, unused); err != nil {
		return result, err
	}
	if err := p.loadSpatial(tr); err != nil {
		return result, err
	}
	if err := p.reconcileLabels(tr); err != nil {
		return result, err
	}

	if err := tr.track("render", func() error {
		proj, err := choropleth.ParseProjection(p.cfg.Render.Projection)
		if err != nil {
			return err
		}
		vertices := choropleth.Fortify(result.Features, p.cfg.Spatial.NameField)
		result.Vertices = choropleth.Join(vertices, result.Reconcile.Units)
		result.Map, err = choropleth.Render(result.Vertices, choropleth.Options{
			Title:        p.cfg.Render.Title,
			Width:        vg.Length(p.cfg.Render.WidthInches) * vg.Inch,
			LegendHeight: vg.Length(p.cfg.Render.LegendInches) * vg.Inch,
			Projection:   proj,
		})
		return eris.Wrap(err, "pipeline: render")
	}); err != nil {
		return result, err
	}

	log.Info("pipeline: run complete",
		zap.Int("mortality_records", len(result.Mortality.Records)),
		zap.Int("units", len(result.Units)),
		zap.Int("features", len(result.Features)),
		zap.Int("vertices", len(result.Vertices)),
	)
	return result, nil
}

// Labels runs the stages up to reconciliation and returns the label report.
// Under the fail policy a mismatch is returned together with the report.
func (p *Pipeline) Labels(ctx context.Context) (*Result, error) {
	result := &Result{}
	tr := &tracker{log: zap.L(), result: result}

	unused, err := p.unusedPattern()
	if err != nil {
		return result, err
	}
	if err := p.loadPopulation(ctx, tr, unused); err != nil {
		return result, err
	}
	if err := p.loadSpatial(tr); err != nil {
		return result, err
	}
	return result, p.reconcileLabels(tr)
}

func (p *Pipeline) loadPopulation(ctx context.Context, tr *tracker, unused *regexp.Regexp) error {
	result := tr.result
	if err := tr.track("population", func() error {
		t, err := p.loadTable(ctx, p.cfg.Sources.PopulationFile, p.cfg.Sources.PopulationURL)
		if err != nil {
			return eris.Wrap(err, "pipeline: load population")
		}
		result.Population, result.PopulationMeta, err = tidy.CleanPopulation(t, tidy.PopulationOptions{
			UnusedPattern:  unused,
			NotesColumn:    p.cfg.Clean.NotesColumn,
			NotesRows:      p.cfg.Clean.NotesRows,
			NotesSeparator: p.cfg.Clean.NotesSeparator,
		})
		return eris.Wrap(err, "pipeline: clean population")
	}); err != nil {
		return err
	}

	return tr.track("aggregate", func() error {
		var err error
		result.Units, err = aggregate.ByUnit(result.Population, aggregate.Options{
			GroupColumn:    p.cfg.Aggregate.GroupColumn,
			EstimateColumn: p.cfg.Aggregate.EstimateColumn,
			AreaColumn:     p.cfg.Aggregate.AreaColumn,
			Scale:          p.cfg.Aggregate.Scale,
		})
		return eris.Wrap(err, "pipeline: aggregate")
	})
}

func (p *Pipeline) loadSpatial(tr *tracker) error {
	return tr.track("spatial", func() error {
		var err error
		tr.result.Features, err = spatial.Load(spatial.LoadOptions{
			ArchivePath:  p.cfg.Spatial.ArchivePath,
			Layer:        p.cfg.Spatial.Layer,
			VersionField: p.cfg.Spatial.VersionField,
			Version:      p.cfg.Spatial.Version,
		})
		return eris.Wrap(err, "pipeline: load spatial")
	})
}

func (p *Pipeline) reconcileLabels(tr *tracker) error {
	result := tr.result
	return tr.track("reconcile", func() error {
		policy, err := reconcile.ParsePolicy(p.cfg.Reconcile.OnMismatch)
		if err != nil {
			return err
		}
		result.Reconcile, err = reconcile.Reconcile(result.Units, result.Features,
			p.cfg.Spatial.NameField, p.cfg.Reconcile.Substitutions, policy)
		return eris.Wrap(err, "pipeline: reconcile")
	})
}

// loadTable reads path when set, otherwise downloads url.
func (p *Pipeline) loadTable(ctx context.Context, path, url string) (*table.Table, error) {
	if path != "" {
		return source.LoadFile(ctx, path)
	}
	return source.Load(ctx, p.fetcher, url)
}

func (p *Pipeline) unusedPattern() (*regexp.Regexp, error) {
	if p.cfg.Clean.UnusedColumnPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(p.cfg.Clean.UnusedColumnPattern)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: compile unused column pattern")
	}
	return re, nil
}
