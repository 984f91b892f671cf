package pipeline

import (
	"time"

	"github.com/theirongolddev/cbudget/internal/model"
)

// DefaultTopN is the number of expense categories ranked by default.
const DefaultTopN = 5

// DashboardParams selects what a dashboard is computed for. Now is only
// used to count the months left for the forecast; a zero Now disables it.
type DashboardParams struct {
	Period model.Period
	Payday int
	Now    time.Time
	TopN   int
}

// BuildDashboard computes every metric of a period from a ledger snapshot.
func BuildDashboard(ledger model.Ledger, p DashboardParams) model.Dashboard {
	txs := ledger.Transactions
	if p.TopN <= 0 {
		p.TopN = DefaultTopN
	}

	start, end := p.Period.Range(p.Payday)
	current := FilterByRange(txs, start, end)
	totals := ComputeTotals(current)

	ps, pe := p.Period.Previous().Range(p.Payday)
	previousTxs := FilterByRange(txs, ps, pe)
	previous := ComputeTotals(previousTxs)
	hasPrevious := len(previousTxs) > 0

	avgs := ComputeYearAverages(txs, p.Period.Year)

	d := model.Dashboard{
		Period:        p.Period,
		Start:         start,
		End:           end,
		Totals:        totals,
		SavingsFlow:   ComputeSavingsFlow(current),
		Comparison:    Compare(totals, previous, hasPrevious),
		Averages:      avgs,
		TopCategories: TopExpenseCategories(txs, p.Period.Year, p.TopN),
		Trends:        NotableTrends(txs, TrendEnd(p.Period, p.Now)),
		Health: ComputeHealth(HealthInput{
			Totals:        totals,
			Previous:      previous,
			HasPrevious:   hasPrevious,
			ActivityCount: len(current),
			Averages:      avgs,
		}),
	}

	// ActiveMonths is floored at 1, so an empty year is caught here: it has
	// no baseline to project from.
	yearTxs := FilterByYear(txs, p.Period.Year)
	if !p.Now.IsZero() && len(yearTxs) > 0 {
		yearTotals := ComputeTotals(yearTxs)
		actual := CumulativeActual{Balance: yearTotals.Balance, Savings: yearTotals.Savings}
		if fc, ok := ForecastYearEnd(avgs, actual, MonthsRemaining(p.Period.Year, p.Now)); ok {
			d.Forecast = &fc
		}
	}

	d.Objectives = EvaluateObjectives(ledger.Objectives, current)
	d.Alerts = ObjectiveAlerts(d.Objectives)
	d.Suggestions = Suggestions(d)

	return d
}

// TrendEnd is the last month a trend looks at: the selected month, or for a
// year selection the current month of an ongoing year and December
// otherwise.
func TrendEnd(p model.Period, now time.Time) model.Period {
	if !p.IsYear() {
		return p
	}
	if !now.IsZero() && now.Year() == p.Year {
		return model.Period{Year: p.Year, Month: int(now.Month())}
	}
	return model.Period{Year: p.Year, Month: 12}
}
