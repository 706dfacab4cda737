package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const minPasswordLen = 8

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new wallet",
	Long: `Initialize a new Prism wallet with a secure recovery phrase.

This command will:
  - Generate a new 24-word recovery phrase
  - Create an encrypted vault in ~/.prism
  - Derive login keys for Ethereum, Solana and Bitcoin`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	manager := a.manager()

	if manager.VaultExists() {
		return fmt.Errorf("wallet already exists. Remove %s/wallet.vault to create a new wallet", a.dir)
	}

	fmt.Println("🚀 Initializing Prism Wallet")
	fmt.Println()

	password, err := readNewPassword("Enter a password for your wallet: ")
	if err != nil {
		return err
	}

	fmt.Println("Generating wallet...")
	if err := manager.Initialize(password); err != nil {
		return fmt.Errorf("failed to initialize wallet: %w", err)
	}

	mnemonic, err := manager.GetMnemonic()
	if err != nil {
		return fmt.Errorf("failed to get recovery phrase: %w", err)
	}

	fmt.Println("✅ Wallet initialized successfully!")
	fmt.Println()
	fmt.Println("🔐 Recovery Phrase (24 words):")
	fmt.Println()
	fmt.Printf("   %s\n", mnemonic)
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT:")
	fmt.Println("   - Write down this recovery phrase and store it securely")
	fmt.Println("   - Anyone with this phrase can sign in as you")
	fmt.Println("   - This is the only way to recover your wallet")
	fmt.Println()
	fmt.Println("🔑 Next steps:")
	fmt.Println("   - Run 'prism address' to see your account ids")
	fmt.Println("   - Run 'prism login' to sign in")

	return nil
}

// readPassword prompts without echo
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// readNewPassword prompts twice and enforces the minimum length
func readNewPassword(prompt string) (string, error) {
	password, err := readPassword(prompt)
	if err != nil {
		return "", err
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
