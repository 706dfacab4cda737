package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/auth"
	"github.com/chinmay1088/prism/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login state",
	Long: `Show whether a wallet is connected, the current challenge and the stored
session token. Token claims are decoded for display only, they are not
verified.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	flow, store, release, err := a.flow(ctx, client)
	if err != nil {
		return err
	}
	defer release()

	acct, err := a.account(loginChain)
	if err != nil {
		return err
	}
	// fetch failures only change what is shown
	_ = flow.Sync(ctx, acct)

	fmt.Printf("🌐 Network: %s\n", networkLabel(a.cfg.Network))
	fmt.Printf("📡 API:     %s\n", a.cfg.Target)
	fmt.Printf("🔖 State:   %s\n", stateLabel(flow.State(ctx)))

	if !flow.Connected() {
		fmt.Println(color.RedString("No wallet connected"))
	} else {
		fmt.Printf("👤 Account: %s\n", acct.Signer.AccountID())
		if challenge, ok := flow.Challenge(); ok {
			fmt.Printf("🎲 Challenge: %s\n", challenge.String())
		}
	}

	token, err := session.LoadToken(ctx, store)
	if err != nil {
		return err
	}
	fmt.Println()
	if token == "" {
		fmt.Println("🔑 Session token: none")
		return nil
	}

	fmt.Printf("🔑 Session token: %s\n", shorten(token))
	claims, err := session.InspectToken(token)
	if err != nil {
		fmt.Println("   (opaque token)")
		return nil
	}
	if claims.AccountID != "" {
		fmt.Printf("   Account: %s\n", claims.AccountID)
	}
	if len(claims.Roles) > 0 {
		fmt.Printf("   Roles:   %s\n", strings.Join(claims.Roles, ", "))
	}
	if !claims.ExpiresAt.IsZero() {
		expiry := claims.ExpiresAt.Local().Format("2006-01-02 15:04:05")
		if claims.Expired(time.Now()) {
			fmt.Printf("   Expires: %s %s\n", expiry, color.RedString("(expired)"))
		} else {
			fmt.Printf("   Expires: %s\n", expiry)
		}
	}
	return nil
}

func stateLabel(s auth.State) string {
	switch s {
	case auth.StateAuthenticated:
		return color.GreenString(string(s))
	case auth.StateDisconnected:
		return color.RedString(string(s))
	}
	return color.YellowString(string(s))
}

func shorten(s string) string {
	if len(s) <= 24 {
		return s
	}
	return s[:12] + "..." + s[len(s)-8:]
}
