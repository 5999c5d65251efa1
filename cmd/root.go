package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	flagDBName     string
	flagSchemaFile string
	flagKeyFile    string
)

var rootCmd = &cobra.Command{
	Use:   "sealdb",
	Short: "Schema-defined, transparently encrypted storage over DuckDB",
	Long: `sealdb turns a SQL schema file into a typed data-access layer: it parses the
CREATE TABLE statements, initializes a local DuckDB database to match, and
exposes per-table CRUD plus vector similarity search. When an encryption key
is configured, TEXT columns are encrypted at rest and decrypted on read
without any change to how commands are used.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	defer func() {
		if registry != nil {
			_ = registry.CloseAll()
		}
	}()

	ctx := context.Background()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBName, "db", "", "Database name (default from SEALDB_DB_NAME)")
	rootCmd.PersistentFlags().StringVar(&flagSchemaFile, "schema", "", "Path to the SQL schema file")
	rootCmd.PersistentFlags().StringVar(&flagKeyFile, "key-file", "", "Path to a base64 encryption key file")

	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(delCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(keygenCmd)
}
