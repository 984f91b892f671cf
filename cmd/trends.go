package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/pipeline"
)

var flagTrendMonths int

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Expense, savings and balance trends over the last months",
	RunE:  runTrends,
}

func init() {
	trendsCmd.Flags().IntVar(&flagTrendMonths, "months", 12, "Months of history to chart")
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, _ []string) error {
	if flagTrendMonths < pipeline.TrendWindow {
		return fmt.Errorf("--months must be at least %d", pipeline.TrendWindow)
	}

	result, err := loadData(cmd.Context())
	if noLedger(err) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	end := pipeline.TrendEnd(selectedPeriod(now), now)
	txs := result.Ledger.Transactions

	fmt.Println()
	fmt.Println(cli.RenderTitle("TRENDS  through " + cli.FormatMonth(end.Year, end.Month)))
	fmt.Println()

	rows := make([][]string, 0, len(pipeline.TrackedMetrics))
	for _, m := range pipeline.TrackedMetrics {
		tr := pipeline.MetricTrend(txs, end, m)
		rows = append(rows, []string{
			cli.Humanize(string(m)),
			cli.FormatDirection(tr.Direction),
			trendChange(tr),
			cli.RenderSparkline(seriesValues(pipeline.MonthlySeries(txs, end, flagTrendMonths, m))),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", fmt.Sprintf("Last %d months", pipeline.TrendWindow), "Change", fmt.Sprintf("%d months", flagTrendMonths)},
		Rows:    rows,
	}))
	return nil
}

// trendChange renders the balance trend as an amount and the others as a
// percentage.
func trendChange(tr model.Trend) string {
	if tr.Metric == model.MetricBalance {
		return cli.FormatSignedMoney(tr.Delta)
	}
	return cli.FormatSignedPercent(tr.Percent)
}

func seriesValues(points []model.MonthlyPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
