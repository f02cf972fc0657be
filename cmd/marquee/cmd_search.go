package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [title]",
		Short: "Search productions by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			query := strings.Join(args, " ")

			m, err := loadModel(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			results := m.SearchTitles(query)
			if len(results) == 0 {
				fmt.Println("No productions found.")
				return nil
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}

			for i, r := range results {
				p, _ := m.Production(r.ID)
				fmt.Printf("%d. [%s] %s\n", i+1, r.Match, r.Display)
				fmt.Printf("   %s to %s, lane %d, %d people\n", p.Opening.Format(), p.Closing.Format(), p.Lane, len(p.People))
				fmt.Printf("   ID: %s\n\n", r.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}
