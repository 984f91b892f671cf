// Package pipeline loads ledger snapshots and computes the budget metrics
// derived from them. Every metric function is pure.
package pipeline

import (
	"time"

	"github.com/theirongolddev/cbudget/internal/model"
)

// MaxPayday is the latest day of month a pay period may start on.
const MaxPayday = 28

// SelectPeriod returns the transactions dated within the calendar month or
// year of p.
func SelectPeriod(txs []model.Transaction, p model.Period) []model.Transaction {
	start, end := p.Range(0)
	return FilterByRange(txs, start, end)
}

// SelectPayPeriod is SelectPeriod with boundaries shifted to payday.
func SelectPayPeriod(txs []model.Transaction, p model.Period, payday int) []model.Transaction {
	start, end := p.Range(payday)
	return FilterByRange(txs, start, end)
}

// PayPeriod returns the [start, end) window labelled (year, month) when pay
// periods begin on payday. Payday 0 or 1 yields the calendar month.
func PayPeriod(year, month, payday int) (start, end time.Time) {
	return model.Period{Year: year, Month: month}.Range(payday)
}

// FilterByRange returns transactions with start <= date < end. Transactions
// without a valid date never match.
func FilterByRange(txs []model.Transaction, start, end time.Time) []model.Transaction {
	var out []model.Transaction
	for _, tx := range txs {
		if !tx.Date.Valid() {
			continue
		}
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// FilterByYear returns the transactions dated in the calendar year.
func FilterByYear(txs []model.Transaction, year int) []model.Transaction {
	return SelectPeriod(txs, model.Period{Year: year})
}

// CurrentPeriod returns the month containing now, shifted to payday: before
// the payday the previous month's pay period is still running.
func CurrentPeriod(now time.Time, payday int) model.Period {
	p := model.Period{Year: now.Year(), Month: int(now.Month())}
	if payday >= 2 && payday <= MaxPayday && now.Day() < payday {
		return p.Previous()
	}
	return p
}
