package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables parsed from the schema",
	Long:  `Display every table the schema file declares, with each column's mapped type, constraints, and whether it is encrypted at rest.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, _, err := openSession(cmd.Context())
		if err != nil {
			return err
		}

		heading := color.New(color.FgCyan, color.Bold)
		encrypted := color.New(color.FgYellow)

		for _, t := range s.Schema() {
			ops, _ := s.Table(t.Name)

			heading.Println(t.Name)

			for _, col := range t.Columns {
				var notes []string

				if col.Required() {
					notes = append(notes, "required")
				}

				if ops.Encrypted(col.Name) {
					notes = append(notes, encrypted.Sprint("encrypted"))
				}

				if len(col.Type.EnumValues) > 0 {
					notes = append(notes, fmt.Sprintf("values: %s", strings.Join(col.Type.EnumValues, "|")))
				}

				fmt.Printf("  %-20s %-14s %s\n", col.Name, col.Type.Kind, strings.Join(notes, ", "))
			}

			if ops.HasSearch() {
				fmt.Println("  (vector search available)")
			}

			fmt.Println()
		}

		return nil
	},
}
