package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cbudget/internal/cli"
)

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "Spending limits and savings goals for the selected period",
	RunE:  runObjectives,
}

func init() {
	rootCmd.AddCommand(objectivesCmd)
}

func runObjectives(cmd *cobra.Command, _ []string) error {
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
	fmt.Println(cli.RenderTitle("OBJECTIVES  " + cli.FormatPeriod(period)))
	fmt.Println()

	if len(d.Objectives) == 0 {
		fmt.Println("  No objectives defined.")
		return nil
	}

	rows := make([][]string, 0, len(d.Objectives))
	for _, st := range d.Objectives {
		kind := "limit"
		if st.Objective.IsFloor() {
			kind = "goal"
		}
		state := cli.Colorize("ok", true)
		if st.Violated {
			state = cli.Colorize("violated", false)
		}
		rows = append(rows, []string{
			st.Objective.Category,
			st.Objective.Type.Label() + " " + kind,
			cli.FormatMoney(st.Objective.Limit.InexactFloat64()),
			cli.FormatMoney(st.Actual),
			cli.FormatPercent(st.PercentOfLimit),
			state,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Objective", "Target", "Actual", "Used", "Status"},
		Rows:    rows,
	}))

	printAlerts(d.Alerts)
	return nil
}
