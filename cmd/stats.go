package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display database statistics",
	Long:  `Show the database location, its size on disk, and per-table row counts.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, cfg, err := openSession(cmd.Context())
		if err != nil {
			return err
		}

		engine := s.Engine()

		color.New(color.Bold).Println("Database Statistics")
		fmt.Println("===================")
		fmt.Println()

		fmt.Printf("Name: %s\n", engine.Name())
		fmt.Printf("Path: %s\n", engine.Path())
		fmt.Printf("Size: %.2f MB\n", engine.SizeMB())
		fmt.Println()

		ctx, cancel := queryContext(cmd.Context(), cfg)
		defer cancel()

		fmt.Println("Rows per table:")

		for _, name := range s.Tables() {
			var count int64
			if err := engine.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+name).Scan(&count); err != nil {
				return err
			}

			fmt.Printf("  %-20s %d\n", name, count)
		}

		return nil
	},
}
