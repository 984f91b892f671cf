package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

// ComputeYearAverages returns the typical month of a year: each type's
// year-to-date sum divided by the number of distinct months holding at
// least one dated transaction (minimum 1).
func ComputeYearAverages(txs []model.Transaction, year int) model.YearAverages {
	yearTxs := FilterByYear(txs, year)

	months := make(map[int]struct{})
	for _, tx := range yearTxs {
		months[int(tx.Date.Month())] = struct{}{}
	}
	active := len(months)
	if active < 1 {
		active = 1
	}

	var income, fixed, variable, savings decimal.Decimal
	for _, tx := range yearTxs {
		switch tx.Type {
		case model.Income:
			income = income.Add(tx.Amount)
		case model.FixedExpense:
			fixed = fixed.Add(tx.Amount)
		case model.VariableExpense:
			variable = variable.Add(tx.Amount)
		case model.Savings:
			savings = savings.Add(tx.Amount)
		}
	}

	n := decimal.NewFromInt(int64(active))
	return model.YearAverages{
		Year:               year,
		AvgIncome:          income.Div(n).InexactFloat64(),
		AvgFixedExpense:    fixed.Div(n).InexactFloat64(),
		AvgVariableExpense: variable.Div(n).InexactFloat64(),
		AvgSavings:         savings.Div(n).InexactFloat64(),
		ActiveMonths:       active,
	}
}
