package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func peopleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "people [name]",
		Short: "List people, or the productions of one person",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			m, err := loadModel(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("people: %w", err)
			}

			if len(args) == 0 {
				for _, p := range m.People() {
					fmt.Printf("%-32s %d productions\n", truncate(p.Name, 30), len(p.Productions))
				}
				return nil
			}

			name := strings.Join(args, " ")
			prods := m.ProductionsForPerson(name)
			if len(prods) == 0 {
				fmt.Printf("No productions credit %q.\n", name)
				return nil
			}
			for _, p := range prods {
				fmt.Printf("%s (%s to %s)\n", m.DisplayTitle(p), p.Opening.Format(), p.Closing.Format())
				for _, pa := range p.People {
					if !strings.EqualFold(pa.Name, name) || pa.Position == "" {
						continue
					}
					fmt.Printf("  %s\n", pa.Position)
				}
			}
			return nil
		},
	}
}
