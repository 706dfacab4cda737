package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/crypto"
	"github.com/chinmay1088/prism/wallet"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock wallet for 30 minutes",
	Long: `Unlock your Prism wallet so login can sign challenges.
The vault is decrypted and an unlock session is kept for 30 minutes,
or until you run 'prism lock'.

Example:
  prism unlock`,
	RunE: runUnlock,
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock wallet",
	Long: `End the unlock session. The session token from 'prism login' is kept;
use 'prism logout' to drop it.`,
	RunE: runLock,
}

func runUnlock(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	manager := a.manager()

	if !manager.VaultExists() {
		return fmt.Errorf("no wallet found. Run 'prism init' to create a new wallet")
	}
	if manager.IsUnlocked() {
		fmt.Println("✅ Wallet is already unlocked")
		return nil
	}

	password, err := readPassword("Enter your wallet password: ")
	if err != nil {
		return err
	}

	fmt.Println("Unlocking wallet...")
	if err := manager.Unlock(password); err != nil {
		if errors.Is(err, crypto.ErrWrongPassword) {
			return fmt.Errorf("failed to unlock wallet: invalid password")
		}
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}

	fmt.Printf("✅ Wallet unlocked for %s\n", wallet.SessionDuration)
	fmt.Println("💡 Use 'prism login' to sign in")
	return nil
}

func runLock(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.manager().Lock(); err != nil {
		return err
	}
	fmt.Println("🔒 Wallet locked")
	return nil
}
