package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/NoBody0206/market-radar/pkg/format"
)

// addWatchlistCommands adds watchlist commands.
func addWatchlistCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage per-segment watchlists",
	}
	cmd.PersistentFlags().String("segment", "india", "market segment")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol>",
		Short: "Add a symbol to the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			segment, err := requireSegment(app, cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.Watchlist()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := svc.Add(segment, args[0]); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Watching %s in %q", args[0], segment)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a symbol from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			segment, err := requireSegment(app, cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.Watchlist()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := svc.Remove(segment, args[0]); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Stopped watching %s in %q", args[0], segment)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the watchlist with live quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			segment, err := requireSegment(app, cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, err := app.Watchlist()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			symbols, err := svc.Symbols(segment)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if len(symbols) == 0 {
				output.Dim("Watchlist for %q is empty", segment)
				return nil
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
	})

	rootCmd.AddCommand(cmd)
}
