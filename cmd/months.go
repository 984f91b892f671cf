package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/pipeline"
)

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "Month-by-month table of a year",
	RunE:  runMonths,
}

func init() {
	rootCmd.AddCommand(monthsCmd)
}

func runMonths(cmd *cobra.Command, _ []string) error {
	result, err := loadData(cmd.Context())
	if noLedger(err) {
		return nil
	}
	if err != nil {
		return err
	}

	year := selectedPeriod(time.Now()).Year
	txs := result.Ledger.Transactions
	payday := appConfig.Period.Payday

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MONTHS  %04d", year)))
	fmt.Println()

	rows := make([][]string, 0, 12)
	balances := make([]float64, 0, 12)
	for m := 1; m <= 12; m++ {
		t := pipeline.ComputeTotals(pipeline.SelectPayPeriod(txs, model.Period{Year: year, Month: m}, payday))
		balances = append(balances, t.Balance)
		if t.Count == 0 {
			rows = append(rows, []string{cli.FormatMonth(year, m), "-", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			cli.FormatMonth(year, m),
			cli.FormatMoney(t.Income),
			cli.FormatMoney(t.Expenses()),
			cli.FormatMoney(t.Savings),
			cli.Colorize(cli.FormatSignedMoney(t.Balance), t.Balance >= 0),
			cli.FormatPercent(t.SavingsRate),
		})
	}

	avgs := pipeline.ComputeYearAverages(txs, year)
	rows = append(rows, cli.SeparatorRow, []string{
		fmt.Sprintf("Avg (%d mo)", avgs.ActiveMonths),
		cli.FormatMoney(avgs.AvgIncome),
		cli.FormatMoney(avgs.AvgExpenses()),
		cli.FormatMoney(avgs.AvgSavings),
		cli.FormatSignedMoney(avgs.AvgBalance()),
		"",
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Income", "Expenses", "Savings", "Balance", "Rate"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Printf("  Balance  %s\n", cli.RenderSparkline(balances))
	return nil
}
