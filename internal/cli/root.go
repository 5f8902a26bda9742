// Package cli provides the command-line interface for the application.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/NoBody0206/market-radar/internal/config"
	"github.com/NoBody0206/market-radar/internal/ledger"
	"github.com/NoBody0206/market-radar/internal/logging"
	"github.com/NoBody0206/market-radar/internal/models"
	"github.com/NoBody0206/market-radar/internal/quotes"
	"github.com/NoBody0206/market-radar/internal/store"
	"github.com/NoBody0206/market-radar/internal/watchlist"
	"github.com/NoBody0206/market-radar/pkg/format"
)

// Version information
const (
	Version = "19.2.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Provider quotes.Provider

	store     store.Store
	ledger    *ledger.Service
	watchlist *watchlist.Service
}

// NewApp wires the application dependencies from configuration.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger,
		Provider: quotes.NewYahooProvider(quotes.YahooConfig{
			CacheTTL: time.Duration(cfg.Quotes.CacheTTLSeconds) * time.Second,
			Timeout:  time.Duration(cfg.Quotes.TimeoutSeconds) * time.Second,
		}),
	}
}

// Execute builds the command tree and runs it. The store is closed when the
// command returns, whether it succeeded or not, so the data directory lock
// is always released. Cobra skips post-run hooks on command failure, which
// is why the close cannot live there: a declined trade must not leave the
// lock behind.
func Execute(cfg *config.Config, logger zerolog.Logger) error {
	app := NewApp(cfg, logger)
	defer app.close()
	return NewRootCmd(app).Execute()
}

// NewRootCmd creates the root command for the CLI. The caller owns the
// app's store lifetime; see Execute.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "radar",
		Short: "Market Radar - virtual trading and market dashboard CLI",
		Long: `Market Radar is a personal finance dashboard with a virtual trading ledger.

It simulates buy/sell trades against per-segment virtual cash balances,
keeps an auditable transaction log, and scores tickers against rule-based
strategy frameworks.

Use 'radar help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addTradingCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addWatchlistCommands(rootCmd, app)

	return rootCmd
}

// openStore opens the configured store backend, once per process.
func (a *App) openStore() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	var (
		st  store.Store
		err error
	)
	switch a.Config.Data.Store {
	case "sqlite":
		st, err = store.NewSQLiteStore(filepath.Join(a.Config.Data.Dir, "radar.db"), a.Logger)
	default:
		st, err = store.NewFileStore(a.Config.Data.Dir, a.Logger)
	}
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// Ledger lazily constructs the ledger service over the configured store.
func (a *App) Ledger() (*ledger.Service, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}

	st, err := a.openStore()
	if err != nil {
		return nil, err
	}

	seeds := make(map[string]models.SegmentSeed, len(a.Config.Segments))
	for name, seg := range a.Config.Segments {
		seeds[name] = models.SegmentSeed{Cash: seg.Cash, Currency: seg.Currency}
	}

	svc, err := ledger.NewService(ledger.ServiceConfig{
		Store:    st,
		Segments: seeds,
		FeeRate:  a.Config.Trading.FeeRate,
		Logger:   a.Logger,
	})
	if err != nil {
		return nil, err
	}
	a.ledger = svc
	return svc, nil
}

// Watchlist lazily constructs the watchlist service.
func (a *App) Watchlist() (*watchlist.Service, error) {
	if a.watchlist != nil {
		return a.watchlist, nil
	}

	st, err := a.openStore()
	if err != nil {
		return nil, err
	}

	svc, err := watchlist.NewService(st, a.Config.SegmentNames())
	if err != nil {
		return nil, err
	}
	a.watchlist = svc
	return svc, nil
}

// Currency returns the display symbol for a segment.
func (a *App) Currency(segment string) string {
	if seg, ok := a.Config.Segments[segment]; ok && seg.Currency != "" {
		return seg.Currency
	}
	return ""
}

func (a *App) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	a.ledger = nil
	a.watchlist = nil
	return err
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Market Radar v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			output.Bold("Data")
			output.Printf("  Directory: %s\n", app.Config.Data.Dir)
			output.Printf("  Store:     %s\n", app.Config.Data.Store)
			output.Bold("Trading")
			output.Printf("  Fee rate:  %.4f\n", app.Config.Trading.FeeRate)
			output.Bold("Segments")
			for _, name := range app.Config.SegmentNames() {
				seg := app.Config.Segments[name]
				output.Printf("  %-8s seed cash %s\n", name, format.Money(seg.Currency, seg.Cash))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

// requireSegment validates the --segment flag against the configuration.
func requireSegment(app *App, cmd *cobra.Command) (string, error) {
	segment, _ := cmd.Flags().GetString("segment")
	if _, ok := app.Config.Segments[segment]; !ok {
		return "", fmt.Errorf("unknown segment %q (known: %v)", segment, app.Config.SegmentNames())
	}
	return segment, nil
}
