package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/schema"
	"github.com/sealdb/sealdb/internal/table"
)

var putCmd = &cobra.Command{
	Use:   "put <table> <column>=<value> [<column>=<value>...]",
	Short: "Insert a row",
	Long: `Insert one row into a table. Values are parsed as JSON where possible
(numbers, booleans, arrays for vector columns) and treated as plain strings
otherwise. A required text id column is filled with a generated UUID when not
supplied.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openSession(cmd.Context())
		if err != nil {
			return err
		}

		ops, ok := s.Table(args[0])
		if !ok {
			return errors.Newf(errors.ErrTypeNotFound, "no table named %q in the schema", args[0])
		}

		data, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}

		fillGeneratedID(ops, data)

		ctx, cancel := queryContext(cmd.Context(), cfg)
		defer cancel()

		row, err := ops.Create(ctx, data)
		if err != nil {
			return err
		}

		color.Green("Created row in %s", args[0])

		return printRow(row)
	},
}

// parseAssignments turns column=value arguments into a payload map. Values
// that parse as JSON keep their JSON type; everything else stays a string.
func parseAssignments(args []string) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(args))

	for _, arg := range args {
		name, raw, found := strings.Cut(arg, "=")
		if !found || name == "" {
			return nil, errors.Newf(errors.ErrTypeValidation, "argument %q is not of the form column=value", arg)
		}

		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}

		data[name] = value
	}

	return data, nil
}

// fillGeneratedID supplies a UUID for a required text id column the caller
// left out. Integer identity columns are generated by the engine instead.
func fillGeneratedID(ops *table.Operations, data map[string]interface{}) {
	if _, present := data["id"]; present {
		return
	}

	col, ok := ops.Table().Column("id")
	if !ok || !col.Required() || col.Type.Kind != schema.TypeText {
		return
	}

	data["id"] = uuid.NewString()
}

func printRow(row table.Row) error {
	encoded, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render row: %w", err)
	}

	fmt.Println(string(encoded))

	return nil
}
