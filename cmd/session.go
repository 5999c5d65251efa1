package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/sealdb/sealdb/internal/config"
	"github.com/sealdb/sealdb/internal/crypto"
	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/logging"
	"github.com/sealdb/sealdb/internal/session"
	"github.com/sealdb/sealdb/internal/storage"
)

// shared across commands for one invocation; Execute closes the registry
var (
	appConfig *config.Config
	registry  *storage.Registry
)

// loadConfig loads the environment configuration once and applies flag
// overrides on top.
func loadConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagDBName != "" {
		cfg.Database.Name = flagDBName
	}

	if flagSchemaFile != "" {
		cfg.Database.SchemaFile = flagSchemaFile
	}

	if flagKeyFile != "" {
		cfg.Crypto.KeyFile = flagKeyFile
	}

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		return nil, err
	}

	appConfig = cfg

	return cfg, nil
}

// openSession builds a ready session from the effective configuration
func openSession(ctx context.Context) (*session.Session, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	schemaText, err := readSchemaFile(cfg)
	if err != nil {
		return nil, nil, err
	}

	key, err := resolveKey(cfg)
	if err != nil {
		return nil, nil, err
	}

	if registry == nil {
		registry = storage.NewRegistry(config.ExpandPath(cfg.Database.Dir))

		lifetime, _ := time.ParseDuration(cfg.Database.ConnMaxLifetime)
		registry.SetPool(storage.Pool{
			MaxOpenConns:    cfg.Database.MaxConnections,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: lifetime,
		})
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " Initializing storage..."
	sp.Start()

	s, err := session.New(ctx, registry, session.Config{
		StorageName: cfg.Database.Name,
		SchemaText:  schemaText,
		Key:         key,
	})

	sp.Stop()

	if err != nil {
		return nil, nil, err
	}

	return s, cfg, nil
}

func readSchemaFile(cfg *config.Config) (string, error) {
	if cfg.Database.SchemaFile == "" {
		return "", errors.New(errors.ErrTypeConfig, "no schema file configured").
			WithSuggestion("Pass --schema <file> or set SEALDB_DB_SCHEMA_FILE")
	}

	data, err := os.ReadFile(config.ExpandPath(cfg.Database.SchemaFile))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrTypeConfig, "failed to read schema file %s", cfg.Database.SchemaFile)
	}

	return string(data), nil
}

// resolveKey turns the configured key material into an in-memory key handle.
// An inline base64 key wins over a key file; with neither, storage is
// plaintext.
func resolveKey(cfg *config.Config) (*crypto.Key, error) {
	if cfg.Crypto.Key != "" {
		return crypto.KeyFromBase64(strings.TrimSpace(cfg.Crypto.Key))
	}

	if cfg.Crypto.KeyFile != "" {
		data, err := os.ReadFile(config.ExpandPath(cfg.Crypto.KeyFile))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeConfig, "failed to read key file %s", cfg.Crypto.KeyFile)
		}

		return crypto.KeyFromBase64(strings.TrimSpace(string(data)))
	}

	return nil, nil
}

// queryContext derives a per-command timeout from the configuration
func queryContext(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cfg.Database.QueryTimeoutDuration())
}

func printNotFound(table, id string) {
	fmt.Printf("No row in %s with id %s\n", table, id)
}
