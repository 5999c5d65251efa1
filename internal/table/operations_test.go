package table

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealdb/sealdb/internal/crypto"
	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/schema"
	"github.com/sealdb/sealdb/internal/storage"
)

const testSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS passwords (
	id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
	title TEXT NOT NULL,
	username TEXT,
	url VARCHAR,
	pinned BOOLEAN DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
	id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
	body TEXT,
	embedding VECTOR(3)
);
`

func newTestOps(t *testing.T, key *crypto.Key) (map[string]*Operations, *storage.Engine) {
	t.Helper()

	registry := storage.NewRegistry(t.TempDir())
	t.Cleanup(func() { _ = registry.CloseAll() })

	engine, err := registry.Open("test")
	require.NoError(t, err)
	require.NoError(t, storage.Initialize(context.Background(), engine, testSchema))

	return Build(engine, schema.ParseSchema(testSchema), key), engine
}

func TestBuildComputesEligibilityOnce(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, _ := newTestOps(t, key)
	passwords := ops["passwords"]

	assert.True(t, passwords.Encrypted("title"))
	assert.True(t, passwords.Encrypted("username"))
	assert.False(t, passwords.Encrypted("url"), "VARCHAR is not encryption-eligible")
	assert.False(t, passwords.Encrypted("pinned"))

	assert.False(t, passwords.HasSearch())
	assert.True(t, ops["documents"].HasSearch())
}

func TestBuildWithoutKeyHasNoEligibleColumns(t *testing.T) {
	ops, _ := newTestOps(t, nil)

	assert.False(t, ops["passwords"].Encrypted("title"))
}

func TestEncryptedCRUDTransparency(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, engine := newTestOps(t, key)
	passwords := ops["passwords"]
	ctx := context.Background()

	created, err := passwords.Create(ctx, map[string]interface{}{
		"title":    "bank login",
		"username": "alice",
		"url":      "https://bank.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "bank login", created["title"], "caller sees plaintext after create")
	assert.Equal(t, "alice", created["username"])

	found, err := passwords.FindUnique(ctx, map[string]interface{}{"id": created["id"]})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "bank login", found["title"], "caller sees plaintext after read")

	// Storage itself must hold ciphertext
	var storedTitle string
	require.NoError(t, engine.QueryRowContext(ctx,
		"SELECT title FROM passwords WHERE id = ?", created["id"],
	).Scan(&storedTitle))
	assert.NotEqual(t, "bank login", storedTitle)

	decrypted, err := crypto.Decrypt(storedTitle, key)
	require.NoError(t, err)
	assert.Equal(t, "bank login", decrypted)
}

func TestCreateValidation(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, _ := newTestOps(t, key)
	passwords := ops["passwords"]
	ctx := context.Background()

	_, err = passwords.Create(ctx, map[string]interface{}{"username": "bob"})
	require.Error(t, err, "missing required column must fail before I/O")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = passwords.Create(ctx, map[string]interface{}{"title": "x", "nonsense": 1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = passwords.Create(ctx, map[string]interface{}{"title": 42})
	require.Error(t, err, "encrypted column requires a string value")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestFindManyOrderingAndPaging(t *testing.T) {
	ops, _ := newTestOps(t, nil)
	passwords := ops["passwords"]
	ctx := context.Background()

	for _, title := range []string{"charlie", "alpha", "bravo"} {
		_, err := passwords.Create(ctx, map[string]interface{}{"title": title})
		require.NoError(t, err)
	}

	rows, err := passwords.FindMany(ctx, &FindParams{OrderBy: "title"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[0]["title"])
	assert.Equal(t, "charlie", rows[2]["title"])

	page, err := passwords.FindMany(ctx, &FindParams{OrderBy: "title", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bravo", page[0]["title"])

	_, err = passwords.FindMany(ctx, &FindParams{OrderBy: "missing"})
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestFilterOnEncryptedColumnRejected(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, _ := newTestOps(t, key)
	passwords := ops["passwords"]
	ctx := context.Background()

	_, err = passwords.FindMany(ctx, &FindParams{Where: map[string]interface{}{"title": "x"}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUnsupportedFilter))

	_, err = passwords.DeleteMany(ctx, map[string]interface{}{"username": "alice"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUnsupportedFilter))

	// Unencrypted columns still filter normally
	_, err = passwords.FindMany(ctx, &FindParams{Where: map[string]interface{}{"url": "https://x"}})
	assert.NoError(t, err)
}

func TestFindUniqueMissingRow(t *testing.T) {
	ops, _ := newTestOps(t, nil)

	row, err := ops["passwords"].FindUnique(context.Background(), map[string]interface{}{"id": int64(9999)})
	require.NoError(t, err, "no match is not an error")
	assert.Nil(t, row)
}

func TestUpdate(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, _ := newTestOps(t, key)
	passwords := ops["passwords"]
	ctx := context.Background()

	created, err := passwords.Create(ctx, map[string]interface{}{"title": "old title"})
	require.NoError(t, err)

	where := map[string]interface{}{"id": created["id"]}

	updated, err := passwords.Update(ctx, where, map[string]interface{}{"title": "new title", "pinned": true})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "new title", updated["title"])
	assert.Equal(t, true, updated["pinned"])

	// Zero changed fields short-circuits to a read
	same, err := passwords.Update(ctx, where, map[string]interface{}{})
	require.NoError(t, err)
	require.NotNil(t, same)
	assert.Equal(t, "new title", same["title"])

	none, err := passwords.Update(ctx, map[string]interface{}{"id": int64(9999)}, map[string]interface{}{"title": "x"})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDeleteReturnsDecryptedRow(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, _ := newTestOps(t, key)
	passwords := ops["passwords"]
	ctx := context.Background()

	created, err := passwords.Create(ctx, map[string]interface{}{"title": "doomed"})
	require.NoError(t, err)

	deleted, err := passwords.Delete(ctx, map[string]interface{}{"id": created["id"]})
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "doomed", deleted["title"])

	again, err := passwords.Delete(ctx, map[string]interface{}{"id": created["id"]})
	require.NoError(t, err)
	assert.Nil(t, again, "deleting a missing row yields nil, not an error")
}

func TestDeleteManyWithoutWhere(t *testing.T) {
	ops, _ := newTestOps(t, nil)
	passwords := ops["passwords"]
	ctx := context.Background()

	for _, title := range []string{"one", "two"} {
		_, err := passwords.Create(ctx, map[string]interface{}{"title": title})
		require.NoError(t, err)
	}

	deleted, err := passwords.DeleteMany(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	remaining, err := passwords.FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCorruptedCiphertextBecomesSentinel(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, engine := newTestOps(t, key)
	passwords := ops["passwords"]
	ctx := context.Background()

	created, err := passwords.Create(ctx, map[string]interface{}{"title": "intact", "username": "alice"})
	require.NoError(t, err)

	// Corrupt one field directly in storage
	_, err = engine.ExecContext(ctx, "UPDATE passwords SET username = 'garbage' WHERE id = ?", created["id"])
	require.NoError(t, err)

	row, err := passwords.FindUnique(ctx, map[string]interface{}{"id": created["id"]})
	require.NoError(t, err, "a corrupt field must not abort the read")
	require.NotNil(t, row)
	assert.Equal(t, crypto.DecryptFailedSentinel, row["username"])
	assert.Equal(t, "intact", row["title"], "other fields stay readable")
}

func TestPlaintextModeWithoutKey(t *testing.T) {
	ops, engine := newTestOps(t, nil)
	passwords := ops["passwords"]
	ctx := context.Background()

	created, err := passwords.Create(ctx, map[string]interface{}{"title": "visible"})
	require.NoError(t, err)

	var storedTitle string
	require.NoError(t, engine.QueryRowContext(ctx,
		"SELECT title FROM passwords WHERE id = ?", created["id"],
	).Scan(&storedTitle))
	assert.Equal(t, "visible", storedTitle, "no key means no encryption")
}

func TestVectorSearchOrdering(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	ops, _ := newTestOps(t, key)
	documents := ops["documents"]
	ctx := context.Background()

	fixtures := []struct {
		body      string
		embedding []float32
	}{
		{"nearest", []float32{1, 0, 0}},
		{"near", []float32{0.8, 0.6, 0}},
		{"far", []float32{0, 1, 0}},
	}

	for _, f := range fixtures {
		_, err := documents.Create(ctx, map[string]interface{}{"body": f.body, "embedding": f.embedding})
		require.NoError(t, err)
	}

	results, err := documents.Search(ctx, []float32{1, 0, 0}, 1.0, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "nearest", results[0]["body"], "results decrypted and in ascending distance order")
	assert.Equal(t, "near", results[1]["body"])

	all, err := documents.Search(ctx, []float32{1, 0, 0}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "defaults: threshold 1.0, limit 10")
}

func TestSearchValidation(t *testing.T) {
	ops, _ := newTestOps(t, nil)
	ctx := context.Background()

	_, err := ops["passwords"].Search(ctx, []float32{1, 0, 0}, 1.0, 10)
	require.Error(t, err, "no embedding column")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = ops["documents"].Search(ctx, []float32{1, 0}, 1.0, 10)
	require.Error(t, err, "dimension mismatch")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = ops["documents"].Search(ctx, nil, 1.0, 10)
	require.Error(t, err, "empty embedding")
}

func TestStorageErrorsPropagate(t *testing.T) {
	ops, engine := newTestOps(t, nil)
	ctx := context.Background()

	// Drop the table behind the operations object
	_, err := engine.ExecContext(ctx, "DROP TABLE passwords")
	require.NoError(t, err)

	_, err = ops["passwords"].FindMany(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
	assert.True(t, strings.Contains(err.Error(), "passwords"))
}
