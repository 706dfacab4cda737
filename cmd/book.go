package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/prism/api"
)

var bookCmd = &cobra.Command{
	Use:   "book <market-id>",
	Short: "Show a market's order book",
	Args:  cobra.ExactArgs(1),
	RunE:  runBook,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the api is serving",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runBook(cmd *cobra.Command, args []string) error {
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

	book, err := client.Clob.GetOrderBook(ctx, &api.OrderBookRequest{MarketID: args[0]})
	if err != nil {
		return fmt.Errorf("failed to fetch order book: %w", err)
	}

	fmt.Printf("📖 Order book for %s\n\n", book.MarketID)
	fmt.Println(color.RedString("Asks:"))
	printLevels(book.Asks)
	if spread, ok := spread(book); ok {
		fmt.Printf("   --- spread $%s ---\n", spread.StringFixed(4))
	}
	fmt.Println(color.GreenString("Bids:"))
	printLevels(book.Bids)
	return nil
}

func printLevels(levels []*api.PriceLevel) {
	if len(levels) == 0 {
		fmt.Println("   (empty)")
		return
	}
	for _, l := range levels {
		fmt.Printf("   $%s x %s\n", l.PriceUSD.StringFixed(4), l.Qty.String())
	}
}

// spread is best ask minus best bid; both sides are sorted best first
func spread(book *api.OrderBook) (decimal.Decimal, bool) {
	if len(book.Asks) == 0 || len(book.Bids) == 0 {
		return decimal.Zero, false
	}
	return book.Asks[0].PriceUSD.Sub(book.Bids[0].PriceUSD), true
}

func runHealth(cmd *cobra.Command, args []string) error {
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

	status, err := client.Health(ctx)
	if err != nil {
		return err
	}
	if status != "SERVING" {
		return fmt.Errorf("%s is %s", a.cfg.Target, status)
	}
	fmt.Printf("✅ %s is %s\n", a.cfg.Target, color.GreenString(status))
	return nil
}
