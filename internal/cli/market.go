package cli

import (
	"context"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/NoBody0206/market-radar/internal/models"
	"github.com/NoBody0206/market-radar/internal/quotes"
	"github.com/NoBody0206/market-radar/internal/scorecard"
	"github.com/NoBody0206/market-radar/pkg/format"
)

func fetchQuotes(ctx context.Context, app *App, symbols []string) map[string]models.Quote {
	return quotes.FetchAll(ctx, app.Provider, symbols)
}

// addMarketCommands adds market data and analysis commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newScorecardCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>...",
		Short: "Fetch live quotes",
		Example: `  radar quote TSLA
  radar quote ^NSEI ^GSPC BTC-USD`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbols := make([]string, len(args))
			for i, a := range args {
				symbols[i] = strings.ToUpper(a)
			}

			priced := fetchQuotes(ctx, app, symbols)
			if output.IsJSON() {
				return output.JSON(priced)
			}

			for _, sym := range symbols {
				q, ok := priced[sym]
				if !ok {
					output.Warning("%-12s no quote", sym)
					continue
				}
				output.Printf("%-12s %12.2f  %s\n", q.Symbol, q.Price, output.Signed(q.ChangePercent, format.Percent(q.ChangePercent)))
			}
			return nil
		},
	}
}

func newScorecardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorecard <symbol>",
		Short: "Score a ticker against a strategy framework",
		Long: `Score a ticker against a rule-based strategy framework.

Fundamental ratios are supplied via flags (growth rates as fractions,
debt/equity in percentage points). The current price is fetched live
unless --price overrides it.

Strategies: canslim (growth/momentum), magic-formula (quality at a
reasonable price), moat (competitive advantage and safety).`,
		Example: `  radar scorecard TSLA --strategy canslim --eps-growth 0.22 --revenue-growth 0.19 --high52 290
  radar scorecard RELIANCE.NS --strategy moat --gross-margin 0.42 --roe 0.18 --debt-equity 38`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			strategyName, _ := cmd.Flags().GetString("strategy")

			f := scorecard.Fundamentals{}
			f.EPSGrowth, _ = cmd.Flags().GetFloat64("eps-growth")
			f.RevenueGrowth, _ = cmd.Flags().GetFloat64("revenue-growth")
			f.FiftyTwoWeekHigh, _ = cmd.Flags().GetFloat64("high52")
			f.TrailingPE, _ = cmd.Flags().GetFloat64("pe")
			f.ReturnOnEquity, _ = cmd.Flags().GetFloat64("roe")
			f.GrossMargin, _ = cmd.Flags().GetFloat64("gross-margin")
			f.DebtToEquity, _ = cmd.Flags().GetFloat64("debt-equity")

			f.Price, _ = cmd.Flags().GetFloat64("price")
			if f.Price == 0 {
				if q, err := app.Provider.GetQuote(ctx, symbol); err == nil {
					f.Price = q.Price
				}
			}

			result, err := scorecard.Evaluate(scorecard.Strategy(strategyName), f)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Bold("%s [%s]", symbol, result.Strategy)
			for _, r := range result.Rules {
				mark := output.Red("✗")
				if r.Passed {
					mark = output.Green("✓")
				}
				output.Printf("  %s %-18s %10s  (target %s)\n", mark, r.Name, r.Actual, r.Target)
			}
			output.Printf("\n  Verdict: %s (%d/%d)\n", verdictString(result.Verdict), result.Score, result.MaxScore)
			return nil
		},
	}

	cmd.Flags().String("strategy", string(scorecard.CANSLIM), "strategy framework: canslim, magic-formula, moat")
	cmd.Flags().Float64("price", 0, "current price (fetched live when omitted)")
	cmd.Flags().Float64("eps-growth", 0, "EPS growth as a fraction (0.15 = 15%)")
	cmd.Flags().Float64("revenue-growth", 0, "revenue growth as a fraction")
	cmd.Flags().Float64("high52", 0, "52-week high price")
	cmd.Flags().Float64("pe", 0, "trailing P/E ratio")
	cmd.Flags().Float64("roe", 0, "return on equity as a fraction")
	cmd.Flags().Float64("gross-margin", 0, "gross margin as a fraction")
	cmd.Flags().Float64("debt-equity", 0, "debt/equity in percentage points")
	return cmd
}

func verdictString(v scorecard.Verdict) string {
	switch v {
	case scorecard.VerdictPass:
		return color.New(color.FgGreen, color.Bold).Sprint(string(v))
	case scorecard.VerdictFail:
		return color.New(color.FgRed, color.Bold).Sprint(string(v))
	default:
		return color.New(color.FgYellow, color.Bold).Sprint(string(v))
	}
}
