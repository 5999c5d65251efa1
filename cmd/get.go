package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/schema"
	"github.com/sealdb/sealdb/internal/table"
)

var getCmd = &cobra.Command{
	Use:   "get <table> <id>",
	Short: "Fetch one row by id",
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

		row, err := ops.FindUnique(ctx, where)
		if err != nil {
			return err
		}

		if row == nil {
			printNotFound(args[0], args[1])
			return nil
		}

		return printRow(row)
	},
}

// idFilter builds a where clause on the id column, coercing the argument to
// the column's mapped type.
func idFilter(ops *table.Operations, raw string) (map[string]interface{}, error) {
	col, ok := ops.Table().Column("id")
	if !ok {
		return nil, errors.Newf(errors.ErrTypeValidation, "table %q has no id column", ops.Table().Name)
	}

	if col.Type.Kind == schema.TypeInteger {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrTypeValidation, "id %q is not an integer", raw)
		}

		return map[string]interface{}{"id": id}, nil
	}

	return map[string]interface{}{"id": raw}, nil
}
