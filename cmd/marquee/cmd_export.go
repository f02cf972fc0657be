package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/marquee/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the timeline to JSON, YAML or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			f := export.Format(format)
			if !f.IsValid() {
				return fmt.Errorf("export: unsupported format %q (use json, yaml or csv)", format)
			}

			m, err := loadModel(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			w := os.Stdout
			if output != "" && output != "-" {
				w, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("export: creating output file: %w", err)
				}
				defer func() { _ = w.Close() }()
			}

			if err := export.Write(w, m, f); err != nil {
				return err
			}

			if output != "" && output != "-" {
				fmt.Fprintf(os.Stderr, "Exported %d productions to %s\n", m.Stats().Productions, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json, yaml or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")
	return cmd
}
