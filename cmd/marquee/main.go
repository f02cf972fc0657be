package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/marquee/internal/builder"
	"github.com/ajitpratap0/marquee/internal/config"
	"github.com/ajitpratap0/marquee/internal/grouper"
	"github.com/ajitpratap0/marquee/internal/lanes"
	"github.com/ajitpratap0/marquee/internal/pipeline"
	"github.com/ajitpratap0/marquee/internal/source"
	"github.com/ajitpratap0/marquee/internal/store"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

// version is set at build time with -ldflags.
var version = "dev"

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var sourceOverride string
	rootCmd := &cobra.Command{
		Use:     "marquee",
		Short:   "Marquee: Broadway production timelines from a credits sheet",
		Long:    "Marquee turns a spreadsheet of production credits into a lane-assigned timeline, a people index and a works-with graph.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if sourceOverride != "" {
				cfg.Source.Location = sourceOverride
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&sourceOverride, "source", "s", "", "source sheet path or URL (overrides source.location)")

	rootCmd.AddCommand(
		buildCmd(),
		exportCmd(),
		searchCmd(),
		peopleCmd(),
		lanesCmd(),
		graphCmd(),
		serveCmd(),
		mcpCmd(),
		healthCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// pipelineOptions maps the validated config onto pipeline options.
func pipelineOptions(c *config.Config) pipeline.Options {
	return pipeline.Options{
		Layout:      source.Layout(c.Source.Layout),
		Identity:    grouper.Identity(c.Pipeline.Identity),
		LanePolicy:  lanes.Policy(c.Pipeline.LanePolicy),
		LaneCount:   c.Pipeline.LaneCount,
		BufferYears: c.Pipeline.BufferYears,
		Sort:        builder.SortOrder(c.Pipeline.Sort),
	}
}

func newLoader(logger *slog.Logger) *pipeline.Loader {
	return pipeline.NewLoader(source.NewFetcher(cfg.Source.Location, logger), pipelineOptions(cfg), logger)
}

// loadModel runs one pipeline load against the configured source.
func loadModel(ctx context.Context, logger *slog.Logger) (*timeline.Model, error) {
	return pipeline.Run(ctx, source.NewFetcher(cfg.Source.Location, logger), pipelineOptions(cfg), logger)
}

func newStore(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	if !cfg.Neo4j.Enabled() {
		return nil, fmt.Errorf("neo4j.uri is not configured")
	}
	st, err := store.NewNeo4jStore(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database, logger)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
