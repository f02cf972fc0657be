// Package pipeline runs fetch, parse, group, build, lane assignment and
// assembly as one unit of work per load.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ajitpratap0/marquee/internal/builder"
	"github.com/ajitpratap0/marquee/internal/classifier"
	"github.com/ajitpratap0/marquee/internal/grouper"
	"github.com/ajitpratap0/marquee/internal/lanes"
	"github.com/ajitpratap0/marquee/internal/metrics"
	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/source"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

// Options configures one pipeline run. There is no package-level state;
// every run is fully described by its Options.
type Options struct {
	Layout      source.Layout
	Identity    grouper.Identity
	LanePolicy  lanes.Policy
	LaneCount   int
	BufferYears int
	Sort        builder.SortOrder
	Now         time.Time // zero means time.Now at run start
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Layout:      source.LayoutHeader,
		Identity:    grouper.IdentityTitle,
		LanePolicy:  lanes.PolicyFirstFit,
		LaneCount:   4,
		BufferYears: lanes.DefaultBufferYears,
		Sort:        builder.SortInsertion,
	}
}

// Run fetches the source and builds a model from it. A fetch or parse
// failure returns an error; row-level problems only add diagnostics.
func Run(ctx context.Context, fetcher source.Fetcher, opts Options, logger *slog.Logger) (*timeline.Model, error) {
	start := time.Now()
	if opts.Now.IsZero() {
		opts.Now = start.UTC()
	}

	data, err := fetcher.Fetch(ctx)
	if err != nil {
		logger.Error("fetch failed", "location", fetcher.Location(), "error", err)
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	rows, err := source.Parse(data, opts.Layout)
	if err != nil {
		logger.Error("parse failed", "location", fetcher.Location(), "layout", opts.Layout, "error", err)
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	return Build(rows, opts, logger), nil
}

// Build runs the in-memory stages over already parsed rows.
func Build(rows []models.RawRow, opts Options, logger *slog.Logger) *timeline.Model {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	groups, diags := grouper.NewGrouper(grouper.Options{Identity: opts.Identity}, logger).Group(rows)
	prods := builder.NewBuilder(classifier.NewClassifier(logger), logger).Build(groups, opts.Sort)

	assigned, laneDiags := lanes.NewAssigner(lanes.Options{
		Policy:      opts.LanePolicy,
		LaneCount:   opts.LaneCount,
		BufferYears: opts.BufferYears,
		Now:         opts.Now,
	}, logger).Assign(prods)
	diags = append(diags, laneDiags...)

	dropped := 0
	for _, d := range diags {
		if d.Kind == models.DiagMissingRequiredField {
			dropped++
		}
	}

	model := timeline.Assemble(assigned, timeline.Options{
		Now:         opts.Now,
		Diagnostics: diags,
		RowsRead:    len(rows),
		RowsDropped: dropped,
	}, logger)

	metrics.RowsRead.Add(int64(len(rows)))
	metrics.RowsDropped.Add(int64(dropped))
	metrics.DiagnosticsTotal.Add(int64(len(diags)))

	stats := model.Stats()
	logger.Info("pipeline complete",
		"rows", stats.RowsRead,
		"dropped", stats.RowsDropped,
		"productions", stats.Productions,
		"people", stats.People,
		"lanes", stats.Lanes,
		"diagnostics", len(diags),
	)
	return model
}
