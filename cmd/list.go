package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/table"
)

var listCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "List rows of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openSession(cmd.Context())
		if err != nil {
			return err
		}

		ops, ok := s.Table(args[0])
		if !ok {
			return errors.Newf(errors.ErrTypeNotFound, "no table named %q in the schema", args[0])
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		orderBy, _ := cmd.Flags().GetString("order")
		desc, _ := cmd.Flags().GetBool("desc")

		ctx, cancel := queryContext(cmd.Context(), cfg)
		defer cancel()

		rows, err := ops.FindMany(ctx, &table.FindParams{
			OrderBy: orderBy,
			Desc:    desc,
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			return err
		}

		for _, row := range rows {
			if err := printRow(row); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	listCmd.Flags().IntP("limit", "l", 50, "Maximum number of rows to display")
	listCmd.Flags().IntP("offset", "o", 0, "Number of rows to skip")
	listCmd.Flags().String("order", "", "Column to order by")
	listCmd.Flags().Bool("desc", false, "Order descending")
}
