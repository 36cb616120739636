package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/config"
	"github.com/rampart-sh/rampart/internal/domain/identity"
)

var hashIdentitySalt string

var hashIdentityCmd = &cobra.Command{
	Use:   "hash-identity [identifier]",
	Short: "Show the salted hash for an identifier",
	Long: `Show the hash rampart derives for an identifier (usually an IP address).

Useful for correlating a known caller with entries in the violation log
or the bucket snapshot, which only ever contain hashed identities.

The salt is read from the loaded config (identity.hash_salt) unless
--salt is given. The same salt must be used as the running server, or
the hashes will not match.

Example:
  rampart hash-identity 203.0.113.7
  rampart hash-identity --salt my-salt 203.0.113.7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		salt := hashIdentitySalt
		if salt == "" {
			cfg, err := config.LoadConfigRaw()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			salt = cfg.Identity.HashSalt
		}

		hasher, err := identity.NewHasher(salt)
		if err != nil {
			return fmt.Errorf("no salt configured: set identity.hash_salt or pass --salt")
		}
		fmt.Println(hasher.Hash(args[0]))
		return nil
	},
}

func init() {
	hashIdentityCmd.Flags().StringVar(&hashIdentitySalt, "salt", "", "salt to hash with (default: identity.hash_salt from config)")
	rootCmd.AddCommand(hashIdentityCmd)
}
