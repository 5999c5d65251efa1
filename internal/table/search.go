package table

import (
	"context"
	"fmt"

	"github.com/sealdb/sealdb/internal/errors"
)

// Similarity search conventions, fixed for both the filter and the ordering:
// cosine distance (0 = identical direction, 2 = opposite), rows kept when
// distance <= threshold, returned in ascending distance order.
const (
	DefaultSearchThreshold = 1.0
	DefaultSearchLimit     = 10
)

// Search runs a nearest-neighbor query against the table's embedding column.
// Only available on tables declaring a vector column named like "embedding";
// callers can check HasSearch first. Text fields in the results are decrypted
// exactly as on every other read path.
func (o *Operations) Search(ctx context.Context, embedding []float32, threshold float64, limit int) ([]Row, error) {
	if o.embeddingColumn == "" {
		return nil, errors.Newf(errors.ErrTypeValidation, "table %q has no embedding column", o.table.Name)
	}

	if len(embedding) == 0 {
		return nil, errors.NewValidationError(o.table.Name, o.embeddingColumn, "query embedding is empty")
	}

	col, _ := o.table.Column(o.embeddingColumn)
	if col.Type.Dimensions > 0 && len(embedding) != col.Type.Dimensions {
		return nil, errors.NewValidationError(
			o.table.Name, o.embeddingColumn,
			fmt.Sprintf("expected %d dimensions, got %d", col.Type.Dimensions, len(embedding)),
		)
	}

	if threshold <= 0 {
		threshold = DefaultSearchThreshold
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	encoded, err := encodeVector(o.table.Name, col, embedding)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT t.*, list_cosine_distance(t.%s, CAST(? AS FLOAT[])) AS distance
			FROM %s t
			WHERE t.%s IS NOT NULL
		)
		WHERE distance <= ?
		ORDER BY distance ASC
		LIMIT %d`,
		o.embeddingColumn, o.table.Name, o.embeddingColumn, limit,
	)

	return o.queryRows(ctx, query, encoded, threshold)
}
