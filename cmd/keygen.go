package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sealdb/sealdb/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a fresh encryption key",
	Long: `Print a new random AES-256 key, base64-encoded. The key is only printed,
never stored: keep it in SEALDB_KEY, or save it to a file and point
--key-file (or SEALDB_KEY_FILE) at it. Data encrypted with a lost key is
unrecoverable.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		key, err := crypto.NewRandomKey()
		if err != nil {
			return err
		}

		fmt.Println(key.Base64())

		return nil
	},
}
