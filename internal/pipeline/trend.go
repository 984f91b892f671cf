package pipeline

import (
	"github.com/theirongolddev/cbudget/internal/model"
)

const (
	// TrendWindow is the number of trailing months a trend is judged on.
	TrendWindow = 3
	// trendPercent is the relative change beyond which a metric moves.
	trendPercent = 10.0
	// balanceThreshold is the absolute change beyond which the balance moves.
	balanceThreshold = 100.0
)

// TrackedMetrics lists the metrics surfaced as trends, in display order.
var TrackedMetrics = []model.Metric{model.MetricExpenses, model.MetricSavings, model.MetricBalance}

// MonthlySeries returns n calendar-month points of metric ending at end,
// oldest first. Months without transactions are zero. A year selection
// ends at December of that year.
func MonthlySeries(txs []model.Transaction, end model.Period, n int, metric model.Metric) []model.MonthlyPoint {
	if n <= 0 {
		return nil
	}
	if end.IsYear() {
		end.Month = 12
	}

	byMonth := make(map[int][]model.Transaction)
	for _, tx := range txs {
		if !tx.Date.Valid() {
			continue
		}
		key := tx.Date.Year()*12 + int(tx.Date.Month()) - 1
		byMonth[key] = append(byMonth[key], tx)
	}

	last := end.Year*12 + end.Month - 1
	points := make([]model.MonthlyPoint, 0, n)
	for key := last - n + 1; key <= last; key++ {
		t := ComputeTotals(byMonth[key])
		points = append(points, model.MonthlyPoint{
			Year:  floorDiv(key, 12),
			Month: key - floorDiv(key, 12)*12 + 1,
			Value: metricValue(t, metric),
		})
	}
	return points
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func metricValue(t model.Totals, metric model.Metric) float64 {
	switch metric {
	case model.MetricExpenses:
		return t.Expenses()
	case model.MetricSavings:
		return t.Savings
	case model.MetricBalance:
		return t.Balance
	}
	return 0
}

// DetectTrend classifies the last three values of a series by relative
// change: above +10% is up, below -10% is down. A series shorter than three
// points is stable.
func DetectTrend(series []float64) model.Trend {
	tr, ok := trendDelta(series)
	if !ok {
		return tr
	}
	switch {
	case tr.Percent > trendPercent:
		tr.Direction = model.Up
	case tr.Percent < -trendPercent:
		tr.Direction = model.Down
	}
	return tr
}

// DetectBalanceTrend classifies like DetectTrend but on the absolute change,
// since a balance can cross zero.
func DetectBalanceTrend(series []float64) model.Trend {
	tr, ok := trendDelta(series)
	if !ok {
		return tr
	}
	switch {
	case tr.Delta > balanceThreshold:
		tr.Direction = model.Up
	case tr.Delta < -balanceThreshold:
		tr.Direction = model.Down
	}
	return tr
}

func trendDelta(series []float64) (model.Trend, bool) {
	tr := model.Trend{Direction: model.Stable}
	if len(series) < TrendWindow {
		return tr, false
	}
	s := series[len(series)-TrendWindow:]
	tr.Delta = s[2] - s[0]
	if s[0] > 0 {
		tr.Percent = tr.Delta / s[0] * 100
	}
	return tr, true
}

// MetricTrend evaluates one metric over the months ending at end.
func MetricTrend(txs []model.Transaction, end model.Period, metric model.Metric) model.Trend {
	points := MonthlySeries(txs, end, TrendWindow, metric)
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	var tr model.Trend
	if metric == model.MetricBalance {
		tr = DetectBalanceTrend(values)
	} else {
		tr = DetectTrend(values)
	}
	tr.Metric = metric
	return tr
}

// NotableTrends returns the non-stable trends of the tracked metrics.
func NotableTrends(txs []model.Transaction, end model.Period) []model.Trend {
	var out []model.Trend
	for _, m := range TrackedMetrics {
		if tr := MetricTrend(txs, end, m); tr.Direction != model.Stable {
			out = append(out, tr)
		}
	}
	return out
}
