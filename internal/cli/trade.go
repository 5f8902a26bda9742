package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/NoBody0206/market-radar/internal/errors"
	"github.com/NoBody0206/market-radar/internal/ledger"
	"github.com/NoBody0206/market-radar/internal/models"
	"github.com/NoBody0206/market-radar/pkg/format"
)

// addTradingCommands adds trading commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newResetCmd(app))
}

func newBuyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy <symbol> <quantity>",
		Short: "Buy shares in the virtual portfolio",
		Long: `Buy shares against a segment's virtual cash balance.

The trade executes at the live quote unless --price overrides it. A fee of
fee_rate * gross value is charged and blended into the average cost of the
position.`,
		Example: `  radar buy RELIANCE.NS 10
  radar buy TSLA 5 --segment global
  radar buy TSLA 5 --segment global --price 250.50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(app, cmd, models.SideBuy, args)
		},
	}
	addTradeFlags(cmd)
	return cmd
}

func newSellCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell <symbol> <quantity>",
		Short: "Sell shares from the virtual portfolio",
		Long: `Sell held shares. Proceeds net of the fee are credited to the segment's
cash balance. Selling the full held quantity closes the position.`,
		Example: `  radar sell RELIANCE.NS 10
  radar sell TSLA 5 --segment global --price 260`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(app, cmd, models.SideSell, args)
		},
	}
	addTradeFlags(cmd)
	return cmd
}

func addTradeFlags(cmd *cobra.Command) {
	cmd.Flags().String("segment", "india", "market segment to trade in")
	cmd.Flags().Float64("price", 0, "execute at this price instead of the live quote")
}

func runTrade(app *App, cmd *cobra.Command, side models.Side, args []string) error {
	output := NewOutput(cmd)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	symbol := strings.ToUpper(args[0])
	qty, err := strconv.Atoi(args[1])
	if err != nil || qty <= 0 {
		output.Error("Invalid quantity: %s", args[1])
		return fmt.Errorf("invalid quantity")
	}

	segment, err := requireSegment(app, cmd)
	if err != nil {
		output.Error("%v", err)
		return err
	}

	price, _ := cmd.Flags().GetFloat64("price")
	if price == 0 {
		price, err = ledger.QuotedPrice(ctx, app.Provider, symbol)
		if err != nil {
			output.Error("No tradable quote for %s", symbol)
			return err
		}
	}

	svc, err := app.Ledger()
	if err != nil {
		output.Error("%v", err)
		return err
	}

	txn, err := svc.ExecuteTrade(segment, side, symbol, qty, price)
	if err != nil {
		output.Error("%s", declineReason(err))
		return err
	}

	currency := app.Currency(segment)
	if output.IsJSON() {
		return output.JSON(txn)
	}
	verb := "Bought"
	if side == models.SideSell {
		verb = "Sold"
	}
	output.Success("%s %d %s @ %s (fee %s)", verb, qty, symbol, format.Money(currency, price), format.Money(currency, txn.Fee))

	port, err := svc.Portfolio(segment)
	if err == nil {
		output.Dim("Cash: %s", format.Money(currency, port.Cash))
	}
	return nil
}

// declineReason maps trade-rejection errors to one-line user messages.
func declineReason(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInsufficientFunds):
		return "Insufficient funds"
	case apperrors.Is(err, apperrors.ErrInsufficientShares):
		return "Not enough shares held"
	case apperrors.Is(err, apperrors.ErrInvalidPrice):
		return "No tradable price for that symbol"
	case apperrors.Is(err, apperrors.ErrInvalidQuantity):
		return "Quantity must be a positive whole number"
	case apperrors.Is(err, apperrors.ErrUnknownSegment):
		return "Unknown market segment"
	default:
		return err.Error()
	}
}

func newResetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a segment to its starting cash",
		Long: `Reset a segment's portfolio to its configured seed cash and clear all
holdings. The transaction log is kept as the audit trail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

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

			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				msg := fmt.Sprintf("This clears all holdings in %q.", segment)
				if seed, ok := svc.Seed(segment); ok {
					msg = fmt.Sprintf("This clears all holdings in %q and restores %s.",
						segment, format.Money(seed.Currency, seed.Cash))
				}
				output.Warning("%s Re-run with --yes to confirm.", msg)
				return nil
			}

			if err := svc.Reset(segment); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Segment %q reset", segment)
			return nil
		},
	}
	cmd.Flags().String("segment", "india", "market segment to reset")
	cmd.Flags().Bool("yes", false, "confirm the reset")
	return cmd
}
