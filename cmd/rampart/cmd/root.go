// Package cmd provides the CLI commands for rampart.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rampart",
	Short: "Rampart - per-identity HTTP rate limiter",
	Long: `Rampart is a token-bucket rate limiter keyed by caller identity.

It resolves the calling IP from proxy headers, hashes it with a salt so
raw addresses are never stored, and enforces per-category token-bucket
policies (api, search, contact, auth by default).

Quick start:
  1. Create a config file: rampart.yaml
  2. Generate a salt:       rampart.yaml -> identity.hash_salt
  3. Run:                   rampart serve

Configuration:
  Config is loaded from rampart.yaml in the current directory,
  $HOME/.rampart/, or /etc/rampart/.

  Environment variables can override config values with the RAMPART_ prefix.
  Example: RAMPART_SERVER_HTTP_ADDR=:9090

Commands:
  serve          Start the rate limit server
  hash-identity  Show the salted hash for an identifier
  hash-token     Generate an argon2id hash for the admin token
  version        Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rampart.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
