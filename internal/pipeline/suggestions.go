package pipeline

import (
	"fmt"

	"github.com/theirongolddev/cbudget/internal/model"
)

// Insight levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelSuccess = "success"
)

// lowSavingsRate is the savings rate under which saving more is advised.
const lowSavingsRate = 10.0

// concentratedShare is the share of yearly expenses above which a single
// category is flagged.
const concentratedShare = 40.0

// Suggestions derives advice from a computed dashboard. This is the only
// place a savings shortfall amount is reported; objective statuses carry
// the violation flag alone.
func Suggestions(d model.Dashboard) []model.Insight {
	var out []model.Insight

	if d.Totals.Balance < 0 {
		out = append(out, model.Insight{
			Level:   LevelWarning,
			Title:   "Negative balance",
			Message: fmt.Sprintf("Outflows exceed income by %.2f this period.", -d.Totals.Balance),
		})
	}

	if d.Totals.Income > 0 && d.Totals.SavingsRate < lowSavingsRate {
		out = append(out, model.Insight{
			Level:   LevelInfo,
			Title:   "Low savings rate",
			Message: fmt.Sprintf("You saved %.1f%% of your income; aim for at least %.0f%%.", d.Totals.SavingsRate, lowSavingsRate),
		})
	}

	for _, st := range d.Objectives {
		if !st.Violated || !st.Objective.IsFloor() {
			continue
		}
		shortfall := st.Objective.Limit.InexactFloat64() - st.Actual
		out = append(out, model.Insight{
			Level:   LevelWarning,
			Title:   "Savings goal missed: " + st.Objective.Category,
			Message: fmt.Sprintf("%.2f more is needed to reach the %s goal of %s.", shortfall, st.Objective.Category, st.Objective.Limit.StringFixed(2)),
		})
	}

	for _, a := range d.Alerts {
		out = append(out, model.Insight{
			Level:   LevelWarning,
			Title:   "Budget exceeded: " + a.Objective.Category,
			Message: fmt.Sprintf("Spent %.2f over the %s limit.", a.Overage, a.Objective.Limit.StringFixed(2)),
		})
	}

	if len(d.TopCategories) > 0 && d.TopCategories[0].SharePercent > concentratedShare {
		top := d.TopCategories[0]
		out = append(out, model.Insight{
			Level:   LevelInfo,
			Title:   "Concentrated spending",
			Message: fmt.Sprintf("%s accounts for %.0f%% of this year's expenses.", top.Category, top.SharePercent),
		})
	}

	if len(out) == 0 && d.Health.Score >= 80 {
		out = append(out, model.Insight{
			Level:   LevelSuccess,
			Title:   "On track",
			Message: "Your budget is in excellent shape. Keep it up.",
		})
	}

	return out
}
