package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/config"
)

var networkCmd = &cobra.Command{
	Use:   "network [mainnet|testnet|previewnet]",
	Short: "Show or change network",
	Long: `Show the current network or switch between mainnet, testnet and previewnet.

The network is sent with every challenge, and each network uses its own
keys, so your mainnet and test accounts stay separate.

Examples:
  prism network            # Show current network
  prism network mainnet    # Switch to mainnet
  prism network testnet    # Switch to testnet`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{config.NetworkMainnet, config.NetworkTestnet, config.NetworkPreviewnet},
	RunE:      runNetwork,
}

func runNetwork(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Printf("🌐 Current network: %s\n", networkLabel(a.cfg.Network))
		fmt.Printf("   API target: %s\n", a.cfg.Target)
		fmt.Println("💡 Prism uses different keys per network for your safety")
		return nil
	}

	network, err := config.ParseNetwork(args[0])
	if err != nil {
		return err
	}

	// only the file is rewritten, env overrides stay out of it
	fileCfg, err := config.ReadFile(a.dir)
	if err != nil {
		return err
	}
	fileCfg.Network = network
	if err := config.Save(a.dir, fileCfg); err != nil {
		return err
	}

	fmt.Printf("🌐 Switched to %s network\n", networkLabel(network))
	if network != config.NetworkMainnet {
		fmt.Println()
		fmt.Println("⚠️  Test networks use separate accounts")
	}
	fmt.Println("💡 Your session token is per account; run 'prism login' again")
	return nil
}
