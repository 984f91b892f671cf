package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/pipeline"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Year-end balance and savings projection",
	RunE:  runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	result, err := loadData(cmd.Context())
	if noLedger(err) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	year := selectedPeriod(now).Year
	d := buildDashboard(result.Ledger, model.Period{Year: year}, now)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %04d", year)))
	fmt.Println()

	table, ok := forecastTable(result.Ledger, d)
	if !ok {
		fmt.Println("  No forecast: the year is over or has no transactions yet.")
		return nil
	}

	fmt.Print(cli.RenderTable(table))
	fmt.Println()
	fmt.Printf("  Based on %d active months, %d months remaining.\n", d.Averages.ActiveMonths, d.Forecast.MonthsRemaining)
	return nil
}

// forecastTable lays out the projection of a year dashboard. "To date" is
// the calendar year the projection starts from, whatever the payday.
func forecastTable(ledger model.Ledger, d model.Dashboard) (cli.Table, bool) {
	if d.Forecast == nil {
		return cli.Table{}, false
	}

	ytd := pipeline.ComputeTotals(pipeline.FilterByYear(ledger.Transactions, d.Period.Year))
	a := d.Averages
	return cli.Table{
		Headers: []string{"", "To date", "Monthly avg", "Year end"},
		Rows: [][]string{
			{"Balance", cli.FormatSignedMoney(ytd.Balance), cli.FormatSignedMoney(a.AvgBalance()), cli.FormatSignedMoney(d.Forecast.ProjectedBalance)},
			{"Savings", cli.FormatMoney(ytd.Savings), cli.FormatMoney(a.AvgSavings), cli.FormatMoney(d.Forecast.ProjectedSavings)},
		},
	}, true
}
