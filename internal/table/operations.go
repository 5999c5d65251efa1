// Package table derives typed CRUD operations from parsed table descriptors.
// TEXT columns are transparently encrypted on write and decrypted on read
// whenever a key is active: callers always see plaintext, storage always
// holds ciphertext.
package table

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sealdb/sealdb/internal/crypto"
	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/logging"
	"github.com/sealdb/sealdb/internal/schema"
	"github.com/sealdb/sealdb/internal/storage"
)

// Row is one record as handed to the caller: column name to value
type Row map[string]interface{}

// FindParams narrows a FindMany call
type FindParams struct {
	Where   map[string]interface{}
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// Operations exposes the per-table CRUD surface. Encryption eligibility is
// computed once at build time, never per call.
type Operations struct {
	engine          *storage.Engine
	table           schema.Table
	key             *crypto.Key
	textColumns     map[string]bool
	embeddingColumn string
}

// Build derives one Operations per parsed table, bound to the engine and the
// (possibly nil) encryption key. Rotating the key means rebuilding.
func Build(engine *storage.Engine, tables []schema.Table, key *crypto.Key) map[string]*Operations {
	ops := make(map[string]*Operations, len(tables))

	for _, t := range tables {
		op := &Operations{
			engine:      engine,
			table:       t,
			key:         key,
			textColumns: make(map[string]bool),
		}

		if key != nil {
			for _, col := range t.Columns {
				if col.EncryptionEligible() {
					op.textColumns[col.Name] = true
				}
			}
		}

		if embedding, ok := t.EmbeddingColumn(); ok {
			op.embeddingColumn = embedding.Name
		}

		ops[t.Name] = op
	}

	return ops
}

// Table returns the parsed descriptor backing these operations
func (o *Operations) Table() schema.Table { return o.table }

// Encrypted reports whether the named column is transparently encrypted
func (o *Operations) Encrypted(column string) bool { return o.textColumns[column] }

// HasSearch reports whether vector similarity search is available
func (o *Operations) HasSearch() bool { return o.embeddingColumn != "" }

// Create validates and inserts one row, returning it with generated defaults
// populated and encrypted fields already decrypted back to plaintext.
func (o *Operations) Create(ctx context.Context, data map[string]interface{}) (Row, error) {
	for _, col := range o.table.Columns {
		if _, present := data[col.Name]; !present && col.Required() {
			return nil, errors.NewValidationError(o.table.Name, col.Name, "required column missing")
		}
	}

	var columns []string

	var placeholders []string

	var args []interface{}

	for _, col := range o.table.Columns {
		value, present := data[col.Name]
		if !present {
			continue
		}

		encoded, err := o.encodeValue(col, value)
		if err != nil {
			return nil, err
		}

		columns = append(columns, col.Name)
		placeholders = append(placeholders, placeholder(col))
		args = append(args, encoded)
	}

	for name := range data {
		if _, ok := o.table.Column(name); !ok {
			return nil, errors.NewValidationError(o.table.Name, name, "no such column")
		}
	}

	if len(columns) == 0 {
		return nil, errors.NewValidationError(o.table.Name, "", "empty payload")
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		o.table.Name, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	rows, err := o.queryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.Newf(errors.ErrTypeStorage, "insert into %s returned no row", o.table.Name)
	}

	return rows[0], nil
}

// FindMany returns the matching rows, decrypted, in engine order plus any
// requested ORDER BY.
func (o *Operations) FindMany(ctx context.Context, params *FindParams) ([]Row, error) {
	if params == nil {
		params = &FindParams{}
	}

	whereSQL, args, err := o.buildWhere(params.Where)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + o.table.Name + whereSQL

	if params.OrderBy != "" {
		if _, ok := o.table.Column(params.OrderBy); !ok {
			return nil, errors.NewValidationError(o.table.Name, params.OrderBy, "no such column in orderBy")
		}

		query += " ORDER BY " + params.OrderBy
		if params.Desc {
			query += " DESC"
		}
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}

	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", params.Offset)
	}

	return o.queryRows(ctx, query, args...)
}

// FindUnique returns the single matching row, or nil when nothing matches
func (o *Operations) FindUnique(ctx context.Context, where map[string]interface{}) (Row, error) {
	if len(where) == 0 {
		return nil, errors.NewValidationError(o.table.Name, "", "findUnique requires a where clause")
	}

	whereSQL, args, err := o.buildWhere(where)
	if err != nil {
		return nil, err
	}

	rows, err := o.queryRows(ctx, "SELECT * FROM "+o.table.Name+whereSQL+" LIMIT 1", args...)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// Update applies the changed fields and returns the updated row. An empty
// data map short-circuits to a plain read.
func (o *Operations) Update(ctx context.Context, where, data map[string]interface{}) (Row, error) {
	if len(data) == 0 {
		return o.FindUnique(ctx, where)
	}

	var assignments []string

	var args []interface{}

	for _, col := range o.table.Columns {
		value, present := data[col.Name]
		if !present {
			continue
		}

		encoded, err := o.encodeValue(col, value)
		if err != nil {
			return nil, err
		}

		assignments = append(assignments, col.Name+" = "+placeholder(col))
		args = append(args, encoded)
	}

	for name := range data {
		if _, ok := o.table.Column(name); !ok {
			return nil, errors.NewValidationError(o.table.Name, name, "no such column")
		}
	}

	whereSQL, whereArgs, err := o.buildWhere(where)
	if err != nil {
		return nil, err
	}

	args = append(args, whereArgs...)

	query := fmt.Sprintf(
		"UPDATE %s SET %s%s RETURNING *",
		o.table.Name, strings.Join(assignments, ", "), whereSQL,
	)

	rows, err := o.queryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// Delete removes the matching row and returns it decrypted, or nil when
// nothing matched
func (o *Operations) Delete(ctx context.Context, where map[string]interface{}) (Row, error) {
	if len(where) == 0 {
		return nil, errors.NewValidationError(o.table.Name, "", "delete requires a where clause; use DeleteMany to clear a table")
	}

	rows, err := o.DeleteMany(ctx, where)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// DeleteMany removes all matching rows (all rows when where is empty) and
// returns them decrypted
func (o *Operations) DeleteMany(ctx context.Context, where map[string]interface{}) ([]Row, error) {
	whereSQL, args, err := o.buildWhere(where)
	if err != nil {
		return nil, err
	}

	return o.queryRows(ctx, "DELETE FROM "+o.table.Name+whereSQL+" RETURNING *", args...)
}

// buildWhere renders an equality WHERE clause over validated columns.
// Filters on encryption-eligible columns are rejected outright: encryption is
// non-deterministic, so equality against ciphertext never matches and would
// silently return nothing.
func (o *Operations) buildWhere(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	var clauses []string

	var args []interface{}

	for _, col := range o.table.Columns {
		value, present := where[col.Name]
		if !present {
			continue
		}

		if o.textColumns[col.Name] {
			return "", nil, errors.NewUnsupportedFilterError(o.table.Name, col.Name)
		}

		encoded, err := o.encodeValue(col, value)
		if err != nil {
			return "", nil, err
		}

		clauses = append(clauses, col.Name+" = "+placeholder(col))
		args = append(args, encoded)
	}

	for name := range where {
		if _, ok := o.table.Column(name); !ok {
			return "", nil, errors.NewValidationError(o.table.Name, name, "no such column in where")
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// encodeValue prepares a caller-supplied value for binding: encrypts
// encryption-eligible text, marshals JSON and vector values, and passes
// everything else through untouched (TypeUnknown included).
func (o *Operations) encodeValue(col schema.Column, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	if o.textColumns[col.Name] {
		plaintext, ok := value.(string)
		if !ok {
			return nil, errors.NewValidationError(o.table.Name, col.Name, "encrypted column expects a string value")
		}

		encrypted, err := crypto.Encrypt(plaintext, o.key)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to encrypt value")
		}

		return encrypted, nil
	}

	switch col.Type.Kind {
	case schema.TypeJSON:
		if s, ok := value.(string); ok {
			return s, nil
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, errors.NewValidationError(o.table.Name, col.Name, "value is not JSON-encodable")
		}

		return string(encoded), nil

	case schema.TypeFloatVector:
		return encodeVector(o.table.Name, col, value)

	default:
		return value, nil
	}
}

// placeholder returns the bind placeholder for a column; vector columns bind
// a JSON string cast to FLOAT[]
func placeholder(col schema.Column) string {
	if col.Type.Kind == schema.TypeFloatVector {
		return "CAST(? AS FLOAT[])"
	}

	return "?"
}

func encodeVector(tableName string, col schema.Column, value interface{}) (interface{}, error) {
	var floats []float64

	switch v := value.(type) {
	case []float32:
		floats = make([]float64, len(v))
		for i, f := range v {
			floats[i] = float64(f)
		}
	case []float64:
		floats = v
	case string:
		return v, nil // already a '[...]' literal
	default:
		return nil, errors.NewValidationError(tableName, col.Name, "vector column expects []float32 or []float64")
	}

	if col.Type.Dimensions > 0 && len(floats) != col.Type.Dimensions {
		return nil, errors.NewValidationError(
			tableName, col.Name,
			fmt.Sprintf("expected %d dimensions, got %d", col.Type.Dimensions, len(floats)),
		)
	}

	encoded, _ := json.Marshal(floats)

	return string(encoded), nil
}

// queryRows runs a query, scans every row dynamically, and decrypts
// encryption-eligible fields before returning. Storage errors propagate;
// per-field decryption failures are contained to a sentinel substitution.
func (o *Operations) queryRows(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	sqlRows, err := o.engine.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeStorage, "query against %s failed", o.table.Name)
	}
	defer sqlRows.Close()

	columns, err := sqlRows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeStorage, "failed to read result columns")
	}

	rows := []Row{}

	for sqlRows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := sqlRows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeStorage, "failed to scan row")
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = values[i]
		}

		o.decryptRow(row)
		rows = append(rows, row)
	}

	if err := sqlRows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeStorage, "row iteration failed")
	}

	return rows, nil
}

// decryptRow rewrites encryption-eligible fields in place. A field that fails
// to decrypt gets the reserved sentinel instead of aborting the whole read;
// each substitution is reported through the error log so corruption is never
// mistaken for legitimate content.
func (o *Operations) decryptRow(row Row) {
	for name := range o.textColumns {
		raw, ok := row[name]
		if !ok || raw == nil {
			continue
		}

		ciphertext, ok := raw.(string)
		if !ok || ciphertext == "" {
			continue
		}

		plaintext, err := crypto.Decrypt(ciphertext, o.key)
		if err != nil {
			logging.Errorf("decryption failed for %s.%s: %v", o.table.Name, name, err)
			row[name] = crypto.DecryptFailedSentinel

			continue
		}

		row[name] = plaintext
	}
}
