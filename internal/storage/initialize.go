package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/logging"
)

// History of applied schema texts, keyed by content hash. Gives Initialize
// true idempotency: re-running the same schema (seed INSERTs included) is a
// no-op, while a changed schema applies its create-if-not-exists statements
// on top of the existing store.
const historyTableSQL = `
CREATE TABLE IF NOT EXISTS sealdb_schema_history (
	schema_hash VARCHAR PRIMARY KEY,
	applied_at TIMESTAMP DEFAULT current_timestamp
);`

// Initialize executes the (normalized) schema text against the engine exactly
// once per distinct schema text. Safe to call repeatedly.
func Initialize(ctx context.Context, engine *Engine, schemaText string) error {
	normalized := Normalize(schemaText)
	if normalized == "" {
		return nil
	}

	if _, err := engine.ExecContext(ctx, historyTableSQL); err != nil {
		return errors.Wrap(err, errors.ErrTypeStorage, "failed to create schema history table")
	}

	sum := sha256.Sum256([]byte(normalized))
	hash := hex.EncodeToString(sum[:])

	var applied int
	if err := engine.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sealdb_schema_history WHERE schema_hash = ?", hash,
	).Scan(&applied); err != nil {
		return errors.Wrap(err, errors.ErrTypeStorage, "failed to check schema history")
	}

	if applied > 0 {
		logging.Debugf("schema %s already applied to %q", hash[:8], engine.Name())
		return nil
	}

	if _, err := engine.ExecContext(ctx, normalized); err != nil {
		return errors.Wrapf(err, errors.ErrTypeStorage, "failed to initialize schema on %q", engine.Name())
	}

	if _, err := engine.ExecContext(ctx,
		"INSERT INTO sealdb_schema_history (schema_hash) VALUES (?)", hash,
	); err != nil {
		return errors.Wrap(err, errors.ErrTypeStorage, "failed to record schema application")
	}

	logging.Infof("applied schema %s to %q", hash[:8], engine.Name())

	return nil
}
