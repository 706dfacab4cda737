package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Wallet login and market data client",
	Long: `Prism signs in to the prediction market api with a key from your local
wallet and queries markets with the resulting session token.

Login flow:
  1. Fetch a challenge for your account and network
  2. Sign keccak256 of the challenge with your wallet key
  3. Trade the signature for a session token
  4. Store the token (~/.prism/session.json, or redis)

Features:
  • Ethereum, Solana and Bitcoin keys from one BIP-39 phrase
  • AES-256-GCM encrypted vault storage
  • Mainnet, testnet and previewnet accounts kept separate
  • gRPC api client with per-call auth metadata

Examples:
  prism init                     # Create new wallet
  prism unlock                   # Unlock wallet
  prism login --chain eth        # Sign in with your Ethereum key
  prism matches --limit 10       # List recent matches
  prism book <market-id>         # Show a market's order book
  prism logout                   # Forget the session token`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(recoveryPhraseCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(intentsCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Prism v%s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}
