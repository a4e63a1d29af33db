package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mailauth/internal/secrets"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a base64 AES-256 key for --secrets-key",
		Long: `Generate a random 32-byte key for encrypting stored secrets.

Keep the key somewhere safe: secrets written with it cannot be read without it.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secrets.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secrets.KeyToBase64(key))
			return nil
		},
	}
}
