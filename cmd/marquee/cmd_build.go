package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func buildCmd() *cobra.Command {
	var showDiagnostics bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the pipeline once and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			m, err := loadModel(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}

			s := m.Stats()
			fmt.Printf("Source:          %s\n", cfg.Source.Location)
			fmt.Printf("Generation:      %s\n", m.Generation)
			fmt.Printf("Rows read:       %d\n", s.RowsRead)
			fmt.Printf("Rows dropped:    %d\n", s.RowsDropped)
			fmt.Printf("Productions:     %d\n", s.Productions)
			fmt.Printf("People:          %d\n", s.People)
			fmt.Printf("Associations:    %d\n", s.Associations)
			fmt.Printf("Lanes:           %d (%s)\n", s.Lanes, cfg.Pipeline.LanePolicy)
			fmt.Printf("Max concurrency: %d\n", s.MaxConcurrency)

			diags := m.Diagnostics()
			fmt.Printf("Diagnostics:     %d\n", len(diags))
			if showDiagnostics {
				for _, d := range diags {
					fmt.Printf("  line %-5d %-28s %s\n", d.Line, d.Kind, truncate(d.Message, 80))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showDiagnostics, "diagnostics", "d", false, "list every diagnostic")
	return cmd
}
