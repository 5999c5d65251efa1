package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/table"
)

var searchCmd = &cobra.Command{
	Use:   "search <table>",
	Short: "Vector similarity search against a table's embedding column",
	Long: `Find the rows whose embedding is nearest to a query embedding, by cosine
distance. The query embedding is read as a JSON array from --embedding, or
from stdin when the flag is omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openSession(cmd.Context())
		if err != nil {
			return err
		}

		ops, ok := s.Table(args[0])
		if !ok {
			return errors.Newf(errors.ErrTypeNotFound, "no table named %q in the schema", args[0])
		}

		if !ops.HasSearch() {
			return errors.Newf(errors.ErrTypeValidation, "table %q has no embedding column", args[0])
		}

		embedding, err := readEmbedding(cmd)
		if err != nil {
			return err
		}

		threshold, _ := cmd.Flags().GetFloat64("threshold")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := queryContext(cmd.Context(), cfg)
		defer cancel()

		rows, err := ops.Search(ctx, embedding, threshold, limit)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			fmt.Println("No rows within the distance threshold")
			return nil
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
	searchCmd.Flags().StringP("embedding", "e", "", "Query embedding as a JSON array (reads stdin when omitted)")
	searchCmd.Flags().Float64P("threshold", "t", table.DefaultSearchThreshold, "Maximum cosine distance")
	searchCmd.Flags().IntP("limit", "l", table.DefaultSearchLimit, "Maximum number of results")
}

func readEmbedding(cmd *cobra.Command) ([]float32, error) {
	raw, _ := cmd.Flags().GetString("embedding")

	if raw == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeValidation, "failed to read embedding from stdin")
		}

		raw = string(data)
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(raw), &embedding); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeValidation, "embedding must be a JSON array of numbers")
	}

	return embedding, nil
}
