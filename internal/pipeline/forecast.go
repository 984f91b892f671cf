package pipeline

import (
	"time"

	"github.com/theirongolddev/cbudget/internal/model"
)

// CumulativeActual is the balance and savings accumulated so far in a year.
type CumulativeActual struct {
	Balance float64
	Savings float64
}

// ForecastYearEnd extends the actual position by the average month for each
// remaining month. ok is false when no month remains or the averages are
// empty; the caller must then show no forecast at all.
func ForecastYearEnd(avgs model.YearAverages, actual CumulativeActual, monthsRemaining int) (model.Forecast, bool) {
	if monthsRemaining <= 0 || avgs.ActiveMonths < 1 {
		return model.Forecast{}, false
	}
	m := float64(monthsRemaining)
	return model.Forecast{
		MonthsRemaining:  monthsRemaining,
		ProjectedBalance: actual.Balance + avgs.AvgBalance()*m,
		ProjectedSavings: actual.Savings + avgs.AvgSavings*m,
	}, true
}

// MonthsRemaining counts the months after now's month up to December of
// year. It is zero or negative for past years.
func MonthsRemaining(year int, now time.Time) int {
	return (year-now.Year())*12 + 12 - int(now.Month())
}
