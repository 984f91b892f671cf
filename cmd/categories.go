package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/pipeline"
)

var (
	flagCategoriesTop   int
	flagCategoriesTypes []string
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Top categories of the selected period",
	RunE:  runCategories,
}

func init() {
	categoriesCmd.Flags().IntVarP(&flagCategoriesTop, "top", "n", 0, "Number of categories to show (default from config, -1 for all)")
	categoriesCmd.Flags().StringSliceVarP(&flagCategoriesTypes, "type", "t", nil, "Transaction types to group (default expenses)")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	types := []model.TxType{model.FixedExpense, model.VariableExpense}
	if len(flagCategoriesTypes) > 0 {
		types = types[:0]
		for _, raw := range flagCategoriesTypes {
			t, ok := model.ParseTxType(raw)
			if !ok {
				return fmt.Errorf("unknown transaction type %q", raw)
			}
			types = append(types, t)
		}
	}

	result, err := loadData(cmd.Context())
	if noLedger(err) {
		return nil
	}
	if err != nil {
		return err
	}

	period := selectedPeriod(time.Now())
	txs := pipeline.SelectPayPeriod(result.Ledger.Transactions, period, appConfig.Period.Payday)

	n := flagCategoriesTop
	if n == 0 {
		n = appConfig.General.TopCategories
	}
	stats := pipeline.TopN(pipeline.GroupByCategory(txs, types...), n)

	if len(stats) == 0 {
		fmt.Println("\n  No matching transactions in the selected period.")
		return nil
	}

	labels := make([]string, len(types))
	for i, t := range types {
		labels[i] = t.Label()
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CATEGORIES  %s", cli.FormatPeriod(period))))
	fmt.Printf("  %s\n\n", strings.Join(labels, ", "))

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Category,
			cli.FormatMoney(s.Total),
			cli.FormatNumber(int64(s.Count)),
			cli.FormatPercent(s.SharePercent),
			cli.RenderShareBar(s.SharePercent, 20),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Amount", "Count", "Share", ""},
		Rows:    rows,
	}))
	return nil
}
