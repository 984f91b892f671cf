package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
	"github.com/theirongolddev/cbudget/internal/config"
	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/pipeline"
	"github.com/theirongolddev/cbudget/internal/source"
	"github.com/theirongolddev/cbudget/internal/store"
)

var (
	flagDataDir  string
	flagYear     int
	flagMonth    int
	flagPayday   int
	flagNoCache  bool
	flagQuiet    bool
	flagLogLevel string

	// appConfig is the effective configuration: file, then environment,
	// then flags.
	appConfig config.Config
)

// dashboardMemoTTL is how long memoized dashboards are kept.
const dashboardMemoTTL = 30 * 24 * time.Hour

var rootCmd = &cobra.Command{
	Use:               "cbudget",
	Short:             "Personal budget analytics CLI",
	Long:              "Analyze your budget ledger: totals, categories, trends, health score, forecast and objectives.",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory of ledger snapshots (default from config)")
	rootCmd.PersistentFlags().IntVarP(&flagYear, "year", "y", 0, "Year to report (default current)")
	rootCmd.PersistentFlags().IntVarP(&flagMonth, "month", "m", 0, "Month to report, 0 for the whole year")
	rootCmd.PersistentFlags().IntVar(&flagPayday, "payday", 0, "Day of month a pay period starts on (0 = calendar months)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, decode every snapshot")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// loadSettings runs before every command: logging, .env, config file, environment
// and flag overrides, in that order.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := setupLogging(flagLogLevel); err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("ignoring .env")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flags.Changed("payday") {
		cfg.Period.Payday = flagPayday
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if flagMonth < 0 || flagMonth > 12 {
		return fmt.Errorf("--month must be between 0 and 12, got %d", flagMonth)
	}

	appConfig = cfg
	if cfg.General.Currency != "" {
		cli.Currency = cfg.General.Currency
	}
	return nil
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	return nil
}

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs. Category
// aliases from the config are applied to the returned ledger.
func loadData(ctx context.Context) (*pipeline.LoadResult, error) {
	dataDir := appConfig.DataDir()
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", dataDir)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%10 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Decoding [%d/%d]", current, total)
		}
	}

	result, err := load(ctx, dataDir, progressFn)
	if err != nil {
		return nil, err
	}
	if result.TotalFiles == 0 {
		return nil, fmt.Errorf("%w in %s", source.ErrNoLedger, dataDir)
	}

	result.Ledger = pipeline.RenameCategories(result.Ledger, appConfig.Categories.Resolver())
	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %d files could not be decoded\n", result.FileErrors)
	}
	if result.ParseErrors > 0 {
		log.Info().Int("records", result.ParseErrors).Msg("skipped unrecognized records")
	}
	return result, nil
}

func load(ctx context.Context, dataDir string, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	// Try cached load unless disabled
	if appConfig.Cache.Enabled {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			log.Warn().Err(err).Msg("cache unavailable, doing full decode")
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(ctx, dataDir, cache, progressFn)
			if err != nil {
				log.Warn().Err(err).Msg("cache error, falling back to full decode")
			} else {
				if !flagQuiet && cr.TotalFiles > 0 {
					if cr.Reparsed == 0 {
						fmt.Fprintf(os.Stderr, "\r  Loaded %s transactions from cache    \n",
							cli.FormatNumber(int64(len(cr.Ledger.Transactions))))
					} else {
						fmt.Fprintf(os.Stderr, "\r  %s cached + %d decoded files    \n",
							cli.FormatNumber(int64(cr.CacheHits)), cr.Reparsed)
					}
				}
				return &cr.LoadResult, nil
			}
		}
	}

	// Uncached path
	result, err := pipeline.Load(ctx, dataDir, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Decoded %s transactions from %d files    \n",
			cli.FormatNumber(int64(len(result.Ledger.Transactions))), result.ParsedFiles)
	}
	return result, nil
}

// noLedger prints a hint and reports true when err means there is nothing
// to report on.
func noLedger(err error) bool {
	if !errors.Is(err, source.ErrNoLedger) {
		return false
	}
	fmt.Println("\n  No ledger snapshots found in " + appConfig.DataDir() + ".")
	fmt.Println("  Export your budget data there, or run `cbudget setup`.")
	return true
}

// selectedPeriod resolves --year/--month, defaulting to the current
// (pay) period.
func selectedPeriod(now time.Time) model.Period {
	switch {
	case flagYear != 0:
		return model.Period{Year: flagYear, Month: flagMonth}
	case flagMonth != 0:
		return model.Period{Year: now.Year(), Month: flagMonth}
	}
	return pipeline.CurrentPeriod(now, appConfig.Period.Payday)
}

// buildDashboard computes the dashboard of p, memoized in the cache when
// it is enabled.
func buildDashboard(ledger model.Ledger, p model.Period, now time.Time) model.Dashboard {
	params := pipeline.DashboardParams{
		Period: p,
		Payday: appConfig.Period.Payday,
		Now:    now,
		TopN:   appConfig.General.TopCategories,
	}
	if !appConfig.Cache.Enabled {
		return pipeline.BuildDashboard(ledger, params)
	}

	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return pipeline.BuildDashboard(ledger, params)
	}
	defer func() { _ = cache.Close() }()

	if n, err := cache.PruneDashboards(now.Add(-dashboardMemoTTL)); err == nil && n > 0 {
		log.Debug().Int64("pruned", n).Msg("expired memoized dashboards")
	}
	return pipeline.CachedDashboard(cache, ledger, params)
}
