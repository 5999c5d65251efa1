package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `json:"database" envPrefix:"SEALDB_"`
	Logging  LoggingConfig  `json:"logging"  envPrefix:"SEALDB_"`
	Crypto   CryptoConfig   `json:"crypto"   envPrefix:"SEALDB_"`
}

// DatabaseConfig represents storage engine configuration
type DatabaseConfig struct {
	Dir             string `json:"dir"               env:"DB_DIR"               envDefault:"~/.local/share/sealdb"`
	Name            string `json:"name"              env:"DB_NAME"              envDefault:"default"`
	SchemaFile      string `json:"schema_file"       env:"DB_SCHEMA_FILE"       envDefault:""`
	MaxConnections  int    `json:"max_connections"   env:"DB_MAX_CONNECTIONS"   envDefault:"10"`
	MaxIdleConns    int    `json:"max_idle_conns"    env:"DB_MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime string `json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	QueryTimeout    string `json:"query_timeout"     env:"DB_QUERY_TIMEOUT"     envDefault:"30s"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.local/share/sealdb/logs/sealdb.log"`
}

// CryptoConfig carries key material sources for the CLI.
// The library itself only ever accepts an in-memory key handle; nothing here
// is written back to disk.
type CryptoConfig struct {
	KeyFile string `json:"key_file" env:"KEY_FILE" envDefault:""`
	Key     string `json:"key"      env:"KEY"      envDefault:""` // base64, takes precedence over KeyFile
}

// Load loads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	// the SEALDB_ prefix comes from the envPrefix struct tags alone; adding it
	// here again would shift every variable to SEALDB_SEALDB_*
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Logging.Format)
	}

	switch cfg.Logging.Output {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("invalid log output: %s", cfg.Logging.Output)
	}

	if cfg.Database.Name == "" {
		return fmt.Errorf("database name must not be empty")
	}

	if _, err := time.ParseDuration(cfg.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}

	if _, err := time.ParseDuration(cfg.Database.QueryTimeout); err != nil {
		return fmt.Errorf("invalid query_timeout: %w", err)
	}

	return nil
}

// QueryTimeoutDuration returns the parsed query timeout
func (c *DatabaseConfig) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}

		return filepath.Join(home, path[2:])
	}

	return path
}
