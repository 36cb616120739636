package cmd

import (
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/spf13/cobra"
)

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token [token]",
	Short: "Generate an argon2id hash for the admin token",
	Long: `Generate an argon2id hash of an admin token for use in config.

The output can be used directly as the admin.token_hash field. The
cleartext token is then presented as "Authorization: Bearer <token>"
when calling the admin API from a non-localhost address.

Example:
  rampart hash-token "my-admin-token"

Security note: The token will appear in shell history.
Consider clearing history after use or using an environment variable:
  rampart hash-token "$RAMPART_ADMIN_TOKEN"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := argon2id.CreateHash(args[0], argon2id.DefaultParams)
		if err != nil {
			return fmt.Errorf("failed to hash token: %w", err)
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashTokenCmd)
}
