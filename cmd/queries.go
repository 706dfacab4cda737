package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/api"
	"github.com/chinmay1088/prism/session"
)

var (
	limitFlag  int32
	offsetFlag int32
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List matched prediction intents",
	Long: `List matches with your session token attached.

Examples:
  prism matches                     # First 100 matches
  prism matches --limit 10 --offset 20`,
	Args: cobra.NoArgs,
	RunE: runMatches,
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List positions",
	Args:  cobra.NoArgs,
	RunE:  runPositions,
}

var intentsCmd = &cobra.Command{
	Use:     "intents",
	Aliases: []string{"prediction-intents"},
	Short:   "List open prediction intents",
	Args:    cobra.NoArgs,
	RunE:    runIntents,
}

func init() {
	for _, c := range []*cobra.Command{matchesCmd, positionsCmd, intentsCmd} {
		c.Flags().Int32VarP(&limitFlag, "limit", "l", api.DefaultPageLimit, "rows per page")
		c.Flags().Int32VarP(&offsetFlag, "offset", "o", 0, "rows to skip")
	}
}

// queryFunc runs one authenticated call on a ready client
type queryFunc func(ctx context.Context, client *api.Client, page *api.PageRequest) error

// runQuery wires config, client and auth metadata around fn
func runQuery(cmd *cobra.Command, fn queryFunc) error {
	if limitFlag < 1 {
		return fmt.Errorf("limit must be at least 1")
	}
	if offsetFlag < 0 {
		return fmt.Errorf("offset must not be negative")
	}

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

	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx, err = api.WithAuth(ctx, session.TokenSource(store))
	if err != nil {
		return err
	}

	fmt.Println("🔄 Loading...")
	start := time.Now()
	err = fn(ctx, client, &api.PageRequest{Limit: limitFlag, Offset: offsetFlag})
	if err != nil {
		return err
	}
	fmt.Printf("\n⏱️ Loaded in %v\n", time.Since(start).Round(10*time.Millisecond))
	return nil
}

func runMatches(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, func(ctx context.Context, client *api.Client, page *api.PageRequest) error {
		resp, err := client.Public.GetAllMatches(ctx, page)
		if err != nil {
			return fmt.Errorf("failed to fetch matches: %w", err)
		}

		fmt.Printf("🤝 Matches (offset %d, %d rows):\n\n", page.Offset, len(resp.Matches))
		for i, m := range resp.Matches {
			fmt.Printf("%d. Market %s | %s\n", int(page.Offset)+i+1, m.MarketID, m.CreatedAt)
			fmt.Printf("   Tx 1: %s (qty %s)\n", m.TxID1, m.Qty1.String())
			fmt.Printf("   Tx 2: %s (qty %s)\n", m.TxID2, m.Qty2.String())
			if m.TxHash != "" {
				fmt.Printf("   Hash: %s\n", m.TxHash)
			}
		}
		return nil
	})
}

func runPositions(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, func(ctx context.Context, client *api.Client, page *api.PageRequest) error {
		resp, err := client.Public.GetAllPositions(ctx, page)
		if err != nil {
			return fmt.Errorf("failed to fetch positions: %w", err)
		}

		fmt.Printf("📊 Positions (offset %d, %d rows):\n\n", page.Offset, len(resp.Positions))
		for i, p := range resp.Positions {
			fmt.Printf("%d. Market %s | %s\n", int(page.Offset)+i+1, p.MarketID, p.EvmAddress)
			fmt.Printf("   Yes: %d  No: %d\n", p.Yes, p.No)
			fmt.Printf("   Updated: %s\n", p.UpdatedAt)
		}
		return nil
	})
}

func runIntents(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, func(ctx context.Context, client *api.Client, page *api.PageRequest) error {
		resp, err := client.Public.GetAllPredictionIntents(ctx, page)
		if err != nil {
			return fmt.Errorf("failed to fetch prediction intents: %w", err)
		}

		fmt.Printf("📝 Prediction intents (offset %d, %d rows):\n\n", page.Offset, len(resp.PredictionIntents))
		for i, p := range resp.PredictionIntents {
			fmt.Printf("%d. Market %s | %s | %s\n", int(page.Offset)+i+1, p.MarketID, p.Net, p.GeneratedAt)
			fmt.Printf("   Account: %s\n", p.AccountID)
			fmt.Printf("   Qty %s @ $%s (notional $%s)\n", p.Qty.String(), p.PriceUSD.StringFixed(2), notional(p.PriceUSD, p.Qty))
		}
		return nil
	})
}

func notional(price, qty decimal.Decimal) string {
	return price.Mul(qty).StringFixed(2)
}
