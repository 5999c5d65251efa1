package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealdb/sealdb/internal/config"
	"github.com/sealdb/sealdb/internal/crypto"
	"github.com/sealdb/sealdb/internal/schema"
	"github.com/sealdb/sealdb/internal/table"
)

func TestParseAssignments(t *testing.T) {
	data, err := parseAssignments([]string{
		"title=my secret",
		"count=42",
		"pinned=true",
		"embedding=[0.1, 0.2]",
		"url=https://example.com/a=b",
	})
	require.NoError(t, err)

	assert.Equal(t, "my secret", data["title"])
	assert.Equal(t, float64(42), data["count"])
	assert.Equal(t, true, data["pinned"])
	assert.Equal(t, []interface{}{0.1, 0.2}, data["embedding"])
	assert.Equal(t, "https://example.com/a=b", data["url"], "only the first = splits")
}

func TestParseAssignmentsRejectsMalformed(t *testing.T) {
	_, err := parseAssignments([]string{"no-equals-sign"})
	require.Error(t, err)

	_, err = parseAssignments([]string{"=value"})
	require.Error(t, err)
}

func TestIDFilterCoercesIntegerIDs(t *testing.T) {
	ops := buildOps(t, `CREATE TABLE t (id BIGINT PRIMARY KEY, v TEXT);`)

	where, err := idFilter(ops, "17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), where["id"])

	_, err = idFilter(ops, "not-a-number")
	require.Error(t, err)
}

func TestIDFilterKeepsTextIDs(t *testing.T) {
	ops := buildOps(t, `CREATE TABLE t (id TEXT PRIMARY KEY, v TEXT);`)

	where, err := idFilter(ops, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", where["id"])
}

func TestFillGeneratedID(t *testing.T) {
	ops := buildOps(t, `CREATE TABLE t (id TEXT PRIMARY KEY NOT NULL, v TEXT);`)

	data := map[string]interface{}{"v": "x"}
	fillGeneratedID(ops, data)
	assert.NotEmpty(t, data["id"], "required text id gets a generated UUID")

	data = map[string]interface{}{"id": "chosen", "v": "x"}
	fillGeneratedID(ops, data)
	assert.Equal(t, "chosen", data["id"], "caller-supplied id wins")

	intOps := buildOps(t, `CREATE TABLE t (id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY, v TEXT);`)
	data = map[string]interface{}{"v": "x"}
	fillGeneratedID(intOps, data)
	_, present := data["id"]
	assert.False(t, present, "identity columns are generated by the engine")
}

func TestResolveKey(t *testing.T) {
	key, err := crypto.NewRandomKey()
	require.NoError(t, err)

	t.Run("inline key", func(t *testing.T) {
		cfg := &config.Config{Crypto: config.CryptoConfig{Key: key.Base64()}}

		resolved, err := resolveKey(cfg)
		require.NoError(t, err)
		assert.Equal(t, key.Base64(), resolved.Base64())
	})

	t.Run("key file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key")
		require.NoError(t, os.WriteFile(path, []byte(key.Base64()+"\n"), 0o600))

		cfg := &config.Config{Crypto: config.CryptoConfig{KeyFile: path}}

		resolved, err := resolveKey(cfg)
		require.NoError(t, err)
		assert.Equal(t, key.Base64(), resolved.Base64())
	})

	t.Run("no key means plaintext", func(t *testing.T) {
		resolved, err := resolveKey(&config.Config{})
		require.NoError(t, err)
		assert.Nil(t, resolved)
	})

	t.Run("missing key file", func(t *testing.T) {
		cfg := &config.Config{Crypto: config.CryptoConfig{KeyFile: "/nonexistent/key"}}

		_, err := resolveKey(cfg)
		require.Error(t, err)
	})
}

// buildOps derives operations from DDL alone; commands that only inspect the
// descriptor never touch the engine.
func buildOps(t *testing.T, ddl string) *table.Operations {
	t.Helper()

	tables := schema.ParseSchema(ddl)
	require.Len(t, tables, 1)

	return table.Build(nil, tables, nil)["t"]
}
