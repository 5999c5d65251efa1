package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sealdb/sealdb/internal/errors"
)

var delCmd = &cobra.Command{
	Use:   "del <table> <id>",
	Short: "Delete one row by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openSession(cmd.Context())
		if err != nil {
			return err
		}

		ops, ok := s.Table(args[0])
		if !ok {
			return errors.Newf(errors.ErrTypeNotFound, "no table named %q in the schema", args[0])
		}

		where, err := idFilter(ops, args[1])
		if err != nil {
			return err
		}

		ctx, cancel := queryContext(cmd.Context(), cfg)
		defer cancel()

		row, err := ops.Delete(ctx, where)
		if err != nil {
			return err
		}

		if row == nil {
			printNotFound(args[0], args[1])
			return nil
		}

		color.Green("Deleted row %s from %s", args[1], args[0])

		return printRow(row)
	},
}
