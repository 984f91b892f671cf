package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
	"github.com/theirongolddev/cbudget/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Period totals, variation and health score",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	result, err := loadData(cmd.Context())
	if noLedger(err) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	period := selectedPeriod(now)
	d := buildDashboard(result.Ledger, period, now)

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGET  " + cli.FormatPeriod(period)))
	fmt.Println()

	if d.Totals.Count == 0 {
		fmt.Println("  No transactions in the selected period.")
		return nil
	}

	t, c := d.Totals, d.Comparison
	rows := [][]string{
		{"Income", cli.FormatMoney(t.Income), cli.FormatVariation(c.Income, c.HasPrevious)},
		{"Fixed expenses", cli.FormatMoney(t.FixedExpense), cli.FormatVariation(c.FixedExpense, c.HasPrevious)},
		{"Variable expenses", cli.FormatMoney(t.VariableExpense), cli.FormatVariation(c.VariableExpense, c.HasPrevious)},
		{"Savings", cli.FormatMoney(t.Savings), cli.FormatVariation(c.Savings, c.HasPrevious)},
		cli.SeparatorRow,
		{"Balance", cli.Colorize(cli.FormatSignedMoney(t.Balance), t.Balance >= 0), cli.FormatVariation(c.Balance, c.HasPrevious)},
		{"Savings rate", cli.FormatPercent(t.SavingsRate), ""},
		{"Transactions", cli.FormatNumber(int64(t.Count)), ""},
	}
	if d.SavingsFlow.Withdrawn > 0 {
		rows = append(rows, []string{"Savings withdrawn", cli.FormatMoney(d.SavingsFlow.Withdrawn), ""})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Amount", "vs " + cli.FormatPeriod(period.Previous())},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Printf("  Health score  %s\n", cli.RenderScore(d.Health.Score, d.Health.Rating))
	for _, comp := range d.Health.Components {
		fmt.Printf("    %-18s %+d\n", cli.Humanize(comp.Name), comp.Points)
	}

	if d.Forecast != nil {
		fmt.Println()
		fmt.Printf("  Year-end forecast (%d months left): balance %s, savings %s\n",
			d.Forecast.MonthsRemaining,
			cli.FormatSignedMoney(d.Forecast.ProjectedBalance),
			cli.FormatMoney(d.Forecast.ProjectedSavings))
	}

	printAlerts(d.Alerts)
	printSuggestions(d.Suggestions)
	return nil
}

func printAlerts(alerts []model.ObjectiveAlert) {
	if len(alerts) == 0 {
		return
	}
	fmt.Println()
	for _, a := range alerts {
		fmt.Printf("  %s %s over budget by %s (%s of %s)\n",
			cli.Colorize("!", false),
			a.Objective.Category,
			cli.FormatMoney(a.Overage),
			cli.FormatMoney(a.Actual),
			cli.FormatMoney(a.Objective.Limit.InexactFloat64()))
	}
}

func printSuggestions(insights []model.Insight) {
	if len(insights) == 0 {
		return
	}
	fmt.Println()
	for _, in := range insights {
		fmt.Println(cli.RenderInsight(in.Level, in.Title, in.Message))
	}
}
