package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/marquee/internal/source"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the source and graph store are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			// Check source
			data, err := source.NewFetcher(cfg.Source.Location, logger).Fetch(ctx)
			switch {
			case err != nil:
				fmt.Printf("Source: FAIL (%v)\n", err)
				allOK = false
			default:
				rows, parseErr := source.Parse(data, source.Layout(cfg.Source.Layout))
				if parseErr != nil {
					fmt.Printf("Source: FAIL (%v)\n", parseErr)
					allOK = false
				} else {
					fmt.Printf("Source: OK (%d rows)\n", len(rows))
				}
			}

			// Check Neo4j
			if !cfg.Neo4j.Enabled() {
				fmt.Println("Neo4j: SKIPPED (neo4j.uri not set)")
			} else {
				st, err := newStore(ctx, logger)
				if err != nil {
					fmt.Printf("Neo4j: FAIL (%v)\n", err)
					allOK = false
				} else {
					defer func() { _ = st.Close(ctx) }()
					if err := st.Ping(ctx); err != nil {
						fmt.Printf("Neo4j: FAIL (%v)\n", err)
						allOK = false
					} else {
						fmt.Println("Neo4j: OK")
					}
				}
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
