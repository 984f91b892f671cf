// Package cmd implements the cbudget CLI commands.
package cmd

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/config"
	"github.com/theirongolddev/cbudget/internal/pipeline"
	"github.com/theirongolddev/cbudget/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory:  %s\n", cfg.DataDir())
	fmt.Printf("    Currency:        %s\n", cfg.General.Currency)
	fmt.Printf("    Top categories:  %d\n", cfg.General.TopCategories)
	fmt.Println()

	fmt.Println("  [Period]")
	if cfg.Period.Payday >= 2 {
		fmt.Printf("    Payday: day %d\n", cfg.Period.Payday)
	} else {
		fmt.Println("    Payday: calendar months")
	}
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Enabled: %v\n", cfg.Cache.Enabled)
	fmt.Printf("    Path:    %s\n", pipeline.CachePath())
	if cfg.Cache.Enabled {
		if cache, err := store.Open(pipeline.CachePath()); err == nil {
			if v, err := cache.SchemaVersion(); err == nil {
				fmt.Printf("    Schema:  v%d\n", v)
			}
			if n, err := cache.TransactionCount(); err == nil {
				fmt.Printf("    Cached transactions: %d\n", n)
			}
			_ = cache.Close()
		}
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval)
	if cfg.Daemon.AMQPURL != "" {
		fmt.Printf("    AMQP:     %s (exchange %s, key %s)\n",
			redactURL(cfg.Daemon.AMQPURL), cfg.Daemon.AMQPExchange, cfg.Daemon.AMQPRoutingKey)
	} else {
		fmt.Println("    AMQP:     not configured")
	}

	if len(cfg.Categories.Aliases) > 0 {
		fmt.Println()
		fmt.Println("  [Categories]")
		from := make([]string, 0, len(cfg.Categories.Aliases))
		for k := range cfg.Categories.Aliases {
			from = append(from, k)
		}
		sort.Strings(from)
		for _, k := range from {
			fmt.Printf("    %s -> %s\n", k, cfg.Categories.Aliases[k])
		}
	}
	fmt.Println()

	fmt.Println("  Run `cbudget setup` to reconfigure.")
	return nil
}

// redactURL hides the password of a broker URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	return u.Redacted()
}
