package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/marquee/internal/metrics"
)

func graphCmd() *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the works-with graph, or push it to Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			m, err := loadModel(ctx, logger)
			if err != nil {
				return fmt.Errorf("graph: %w", err)
			}

			if !push {
				g := m.Graph()
				fmt.Printf("Nodes: %d\n", len(g.Nodes))
				for _, n := range g.Nodes {
					fmt.Printf("  %-32s %d productions\n", truncate(n.Label, 30), len(n.Productions))
				}
				fmt.Printf("Edges: %d\n", len(g.Edges))
				for _, e := range g.Edges {
					fmt.Printf("  %s -- %s (%d)\n", e.From, e.To, e.Weight)
				}
				return nil
			}

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("graph: connecting to store: %w", err)
			}
			defer func() { _ = st.Close(ctx) }()

			if err := st.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("graph: %w", err)
			}
			stats, err := st.PushGraph(ctx, m)
			if err != nil {
				return fmt.Errorf("graph: %w", err)
			}
			metrics.Inc(metrics.GraphPushesTotal)

			fmt.Printf("Pushed generation %s: %d productions, %d appearances, %d edges\n",
				stats.Generation, stats.Productions, stats.Appearances, stats.Edges)
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "write the graph to the configured Neo4j database")
	return cmd
}
