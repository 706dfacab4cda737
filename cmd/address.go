package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/wallet"
)

var addressCmd = &cobra.Command{
	Use:   "address [chain]",
	Short: "Show login account ids",
	Long: `Show the account id each chain key signs in as on the current network.
Supported chains: eth, sol, btc

Examples:
  prism address eth     # Show Ethereum account
  prism address sol     # Show Solana account
  prism address         # Show all accounts`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAddress,
}

func runAddress(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	manager, err := a.unlockedManager()
	if err != nil {
		return err
	}

	chains := wallet.Chains
	if len(args) == 1 {
		chain, err := wallet.ParseChain(args[0])
		if err != nil {
			return err
		}
		chains = []wallet.Chain{chain}
	}

	fmt.Printf("🌐 Network: %s\n", networkLabel(manager.Network()))
	fmt.Println()

	for _, chain := range chains {
		if err := showChainAddress(manager, chain); err != nil {
			return err
		}
	}
	return nil
}

func showChainAddress(manager *wallet.Manager, chain wallet.Chain) error {
	switch chain {
	case wallet.ChainEthereum:
		s, err := manager.EthereumSigner()
		if err != nil {
			return fmt.Errorf("failed to get Ethereum account: %w", err)
		}
		fmt.Printf("🔷 Ethereum (ETH): %s\n", s.AccountID())
		fmt.Printf("   Public key: %s\n", s.PublicKey())

	case wallet.ChainSolana:
		s, err := manager.SolanaSigner()
		if err != nil {
			return fmt.Errorf("failed to get Solana account: %w", err)
		}
		fmt.Printf("🟣 Solana (SOL):   %s\n", s.AccountID())

	case wallet.ChainBitcoin:
		s, err := manager.BitcoinSigner()
		if err != nil {
			return fmt.Errorf("failed to get Bitcoin account: %w", err)
		}
		script, err := s.PkScript()
		if err != nil {
			return err
		}
		fmt.Printf("🟠 Bitcoin (BTC):  %s\n", s.AccountID())
		fmt.Printf("   Script: %s\n", hex.EncodeToString(script))
	}
	return nil
}

func networkLabel(network string) string {
	title := strings.ToUpper(network[:1]) + network[1:]
	if network == wallet.NetworkMainnet {
		return color.GreenString(title)
	}
	return color.YellowString(title)
}
