package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/wallet"
)

var recoveryPhraseCmd = &cobra.Command{
	Use:   "recovery-phrase [show|import]",
	Short: "Manage recovery phrase",
	Long: `Manage your wallet's recovery phrase (mnemonic).

Commands:
  show    - Display the recovery phrase (wallet must be unlocked)
  import  - Import wallet from existing recovery phrase (12 or 24 words)`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"show", "import"},
	RunE:      runRecoveryPhrase,
}

func runRecoveryPhrase(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	manager := a.manager()

	switch action := strings.ToLower(args[0]); action {
	case "show":
		return showRecoveryPhrase(a)
	case "import":
		return importRecoveryPhrase(manager)
	default:
		return fmt.Errorf("invalid action: %s. Use 'show' or 'import'", action)
	}
}

func showRecoveryPhrase(a *app) error {
	manager, err := a.unlockedManager()
	if err != nil {
		return err
	}

	mnemonic, err := manager.GetMnemonic()
	if err != nil {
		return fmt.Errorf("failed to get mnemonic: %w", err)
	}

	fmt.Println("🔐 Recovery Phrase:")
	fmt.Println()
	fmt.Printf("   %s\n", mnemonic)
	fmt.Println()
	fmt.Println("⚠️  Security Warning:")
	fmt.Println("   - Keep this phrase secure and private")
	fmt.Println("   - Never share it with anyone")
	return nil
}

func importRecoveryPhrase(manager *wallet.Manager) error {
	if manager.VaultExists() {
		return fmt.Errorf("wallet already exists. Remove existing wallet first")
	}

	fmt.Println("📝 Import Wallet from Recovery Phrase")
	fmt.Println()

	fmt.Print("Enter recovery phrase: ")
	mnemonic, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read mnemonic: %w", err)
	}

	password, err := readNewPassword("Enter password for new wallet: ")
	if err != nil {
		return err
	}

	if err := manager.ImportFromMnemonic(mnemonic, password); err != nil {
		return fmt.Errorf("failed to import wallet: %w", err)
	}

	fmt.Println("✅ Wallet imported successfully!")
	fmt.Println()
	fmt.Println("🔑 Next steps:")
	fmt.Println("   - Run 'prism address' to see your account ids")
	fmt.Println("   - Run 'prism login' to sign in")
	return nil
}
