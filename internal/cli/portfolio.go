package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/NoBody0206/market-radar/pkg/format"
)

func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show cash, holdings and live net worth",
		Example: `  radar portfolio
  radar portfolio --segment global
  radar portfolio --offline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			segment, err := requireSegment(app, cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.Ledger()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			provider := app.Provider
			if offline, _ := cmd.Flags().GetBool("offline"); offline {
				provider = nil
			}

			val, err := svc.Valuation(ctx, provider, segment)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(val)
			}

			currency := app.Currency(segment)
			output.Bold("Portfolio [%s]", segment)
			output.Printf("  Cash:      %s\n", format.Money(currency, val.Cash))
			output.Printf("  Positions: %s\n", format.Money(currency, val.MarketValue))
			output.Printf("  Net Worth: %s\n", format.Money(currency, val.NetWorth))

			if len(val.Holdings) == 0 {
				output.Dim("Empty portfolio")
				return nil
			}

			output.Println()
			output.Printf("  %-12s %8s %12s %12s %14s %10s\n", "SYMBOL", "QTY", "AVG", "LAST", "VALUE", "P&L%")
			for _, h := range val.Holdings {
				last := ""
				if !h.Live {
					last = "*"
				}
				output.Printf("  %-12s %8d %12.2f %11.2f%s %14.2f %s\n",
					h.Symbol, h.Quantity, h.AveragePrice, h.LastPrice, last, h.MarketValue,
					output.Signed(h.PnL, format.Percent(h.PnLPercent)))
			}
			output.Dim("  * no live quote, priced at average cost")
			return nil
		},
	}
	cmd.Flags().String("segment", "india", "market segment to show")
	cmd.Flags().Bool("offline", false, "skip live quotes, price holdings at average cost")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transaction log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			limit, _ := cmd.Flags().GetInt("limit")

			svc, err := app.Ledger()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			txns := svc.Transactions(limit)
			if output.IsJSON() {
				return output.JSON(txns)
			}

			if len(txns) == 0 {
				output.Dim("No transactions yet")
				return nil
			}

			output.Printf("%-17s %-5s %-12s %8s %12s %10s\n", "DATE", "SIDE", "SYMBOL", "QTY", "PRICE", "FEE")
			for _, t := range txns {
				side := output.Green(string(t.Type))
				if t.Type == "SELL" {
					side = output.Red(string(t.Type))
				}
				output.Printf("%-17s %-5s %-12s %8d %12.2f %10.2f\n", t.Date, side, t.Symbol, t.Qty, t.Price, t.Fee)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 50, "maximum records to show (0 = all)")
	return cmd
}
