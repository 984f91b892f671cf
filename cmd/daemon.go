package cmd

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
	"github.com/theirongolddev/cbudget/internal/daemon"
	"github.com/theirongolddev/cbudget/internal/notify"
	"github.com/theirongolddev/cbudget/internal/pipeline"
)

// brokerDialAttempts bounds how long startup waits for the AMQP broker.
const brokerDialAttempts = 5

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch the ledger and serve the current dashboard over HTTP/SSE",
	Long: "Polls the ledger directory, rebuilds the current period's dashboard and serves it at /v1/dashboard.\n" +
		"Newly violated objectives are streamed at /v1/stream and, when daemon.amqp_url is set, published to the broker.",
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and current period status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(pipeline.CacheDir(), "cbudgetd.pid"), "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", filepath.Join(pipeline.CacheDir(), "cbudgetd.log"), "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonAddr == "" {
		flagDaemonAddr = appConfig.Daemon.Addr
	}
	if flagDaemonInterval == 0 {
		flagDaemonInterval = appConfig.Daemon.Interval.Duration
	}
	if !cmd.Flags().Changed("log-level") {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	pf := pidFile(flagDaemonPIDFile)
	if flagDaemonDetach {
		if err := pf.vacant(); err != nil {
			return err
		}
		pid, err := spawnDetached(childArgs(os.Args[1:]), flagDaemonLogFile)
		if err != nil {
			return err
		}
		fmt.Printf("  Started daemon (pid %d)\n", pid)
		fmt.Printf("  Dashboard: http://%s/v1/dashboard\n", flagDaemonAddr)
		fmt.Printf("  Log: %s\n", flagDaemonLogFile)
		return nil
	}

	return runDaemonForeground(pf)
}

func runDaemonForeground(pf pidFile) error {
	release, err := pf.claim(runtimeState{
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		DataDir:   appConfig.DataDir(),
		Payday:    appConfig.Period.Payday,
		Publishes: appConfig.Daemon.AMQPURL != "",
	})
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := daemon.Config{
		DataDir:      appConfig.DataDir(),
		Payday:       appConfig.Period.Payday,
		TopN:         appConfig.General.TopCategories,
		UseCache:     appConfig.Cache.Enabled,
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		Rename:       appConfig.Categories.Resolver(),
	}

	if url := appConfig.Daemon.AMQPURL; url != "" {
		pub, err := notify.DialWithRetry(ctx, url, appConfig.Daemon.AMQPExchange, appConfig.Daemon.AMQPRoutingKey, brokerDialAttempts)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer func() { _ = pub.Close() }()
		cfg.Publisher = pub
		log.Info().Str("exchange", appConfig.Daemon.AMQPExchange).Msg("publishing objective violations")
	}

	fmt.Printf("  cbudget daemon watching %s every %s\n", cfg.DataDir, flagDaemonInterval)
	fmt.Printf("  Dashboard: http://%s/v1/dashboard\n", flagDaemonAddr)

	if err := daemon.New(cfg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, alive, err := pf.running()
	switch {
	case err != nil:
		return err
	case pid == 0:
		fmt.Println("  Daemon: not running")
		return nil
	case !alive:
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := cmp.Or(flagDaemonAddr, appConfig.Daemon.Addr)
	if st, err := pf.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}
	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchStatus(cmd.Context(), addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Println("  Last poll: pending")
	} else {
		fmt.Printf("  Last poll: %s (%d polls)\n", st.LastPollAt.Local().Format(time.RFC3339), st.PollCount)
	}
	s := st.Summary
	fmt.Printf("  Period %s: %s transactions, balance %s, health %d\n",
		s.Period, cli.FormatNumber(int64(s.Transactions)), cli.FormatSignedMoney(s.Balance), s.HealthScore)
	if s.Violations > 0 {
		fmt.Printf("  %s %d objectives violated\n", cli.Colorize("!", false), s.Violations)
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func fetchStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := pidFile(flagDaemonPIDFile).terminate(8 * time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}

