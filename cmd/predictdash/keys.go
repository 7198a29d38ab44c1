package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/predictdash/internal/crypto"
)

func newEncryptKeyCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "encrypt-key",
		Short: "Encrypt a private key for wallet.encrypted_key_path",
		Long: `Reads the hex private key from PREDICTDASH_WALLET_PRIVATE_KEY and the
password from PREDICTDASH_WALLET_KEY_PASSWORD, and writes the encrypted key
file to --out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := os.Getenv("PREDICTDASH_WALLET_PRIVATE_KEY")
			password := os.Getenv("PREDICTDASH_WALLET_KEY_PASSWORD")
			if key == "" || password == "" {
				return errors.New("PREDICTDASH_WALLET_PRIVATE_KEY and PREDICTDASH_WALLET_KEY_PASSWORD must be set")
			}
			data, err := crypto.EncryptKey(key, password)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "wallet.key.json", "output file")
	return cmd
}
