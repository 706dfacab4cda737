package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/session"
)

var loginChain string

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Fetch the login challenge",
	Long: `Fetch the current login challenge for your account without signing it.

Examples:
  prism challenge              # Ethereum account
  prism challenge --chain sol  # Solana account`,
	Args: cobra.NoArgs,
	RunE: runChallenge,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your wallet",
	Long: `Sign in to the api with one of your wallet keys.

The challenge for your account is fetched, keccak256 of its decimal text is
signed, and the session token returned by the server is stored.

Examples:
  prism login                  # Sign in with your Ethereum key
  prism login --chain sol      # Sign in with your Solana key`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session token",
	Long: `Remove the stored session token. The server is not contacted, so the
token stays valid there until it expires.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	for _, c := range []*cobra.Command{challengeCmd, loginCmd, statusCmd} {
		c.Flags().StringVarP(&loginChain, "chain", "c", "eth", "key to sign in with (eth, sol, btc)")
	}
}

func runChallenge(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd.Context())
	defer cancel()

	client, err := a.client()
	if err != nil {
		return err
	}
	defer client.Close()

	flow, _, release, err := a.flow(ctx, client)
	if err != nil {
		return err
	}
	defer release()

	acct, err := a.account(loginChain)
	if err != nil {
		return err
	}
	if err := flow.Sync(ctx, acct); err != nil {
		return explain(err)
	}

	challenge, _ := flow.Challenge()
	fmt.Printf("🎲 Challenge for %s on %s:\n", acct.Signer.AccountID(), networkLabel(a.cfg.Network))
	fmt.Printf("   %s\n", challenge.String())
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd.Context())
	defer cancel()

	client, err := a.client()
	if err != nil {
		return err
	}
	defer client.Close()

	flow, _, release, err := a.flow(ctx, client)
	if err != nil {
		return err
	}
	defer release()

	acct, err := a.account(loginChain)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	bar := progressbar.NewOptions(2,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetVisibility(!quiet),
		progressbar.OptionSetDescription("[cyan][1/2][reset] Fetching challenge..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:     "[green]=[reset]",
			SaucerHead: "[green]>[reset]",
			BarStart:   "[",
			BarEnd:     "]",
		}),
	)

	if err := flow.Sync(ctx, acct); err != nil {
		_ = bar.Exit()
		fmt.Println()
		return explain(err)
	}

	_ = bar.Set(1)
	bar.Describe("[cyan][2/2][reset] Signing challenge...")
	token, err := flow.Login(ctx)
	if err != nil {
		_ = bar.Exit()
		fmt.Println()
		return explain(err)
	}

	_ = bar.Set(2)
	bar.Describe("[green][✓][reset] Signed in")
	fmt.Println()
	fmt.Println()

	fmt.Printf("✅ Logged in as %s on %s\n", acct.Signer.AccountID(), networkLabel(a.cfg.Network))
	if claims, err := session.InspectToken(token); err == nil && !claims.ExpiresAt.IsZero() {
		fmt.Printf("⏳ Session expires %s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Println("💡 Try 'prism matches' or 'prism positions'")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd.Context())
	defer cancel()

	client, err := a.client()
	if err != nil {
		return err
	}
	defer client.Close()

	flow, _, release, err := a.flow(ctx, client)
	if err != nil {
		return err
	}
	defer release()

	if err := flow.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("👋 Logged out")
	return nil
}
