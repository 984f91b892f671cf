package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals sums amounts per type. Sums are exact; the float fields are
// rounded once at the end.
func ComputeTotals(txs []model.Transaction) model.Totals {
	var income, fixed, variable, savings decimal.Decimal

	for _, tx := range txs {
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

	balance := income.Sub(fixed).Sub(variable).Sub(savings)

	t := model.Totals{
		Income:          income.InexactFloat64(),
		FixedExpense:    fixed.InexactFloat64(),
		VariableExpense: variable.InexactFloat64(),
		Savings:         savings.InexactFloat64(),
		Balance:         balance.InexactFloat64(),
		Count:           len(txs),
	}
	if income.IsPositive() {
		t.SavingsRate = savings.Div(income).Mul(hundred).InexactFloat64()
	}
	return t
}

// Variation returns the signed percentage change from previous to current.
// From zero it is 100 for any positive current value and 0 otherwise.
func Variation(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// Compare computes the variation of every total against the previous
// period. Without previous data the variations are left at zero and
// HasPrevious is false.
func Compare(current, previous model.Totals, hasPrevious bool) model.Comparison {
	c := model.Comparison{HasPrevious: hasPrevious}
	if !hasPrevious {
		return c
	}
	c.Previous = previous
	c.Income = Variation(current.Income, previous.Income)
	c.FixedExpense = Variation(current.FixedExpense, previous.FixedExpense)
	c.VariableExpense = Variation(current.VariableExpense, previous.VariableExpense)
	c.Savings = Variation(current.Savings, previous.Savings)
	c.Balance = Variation(current.Balance, previous.Balance)
	return c
}

// ComputeSavingsFlow totals savings deposits against withdrawals.
func ComputeSavingsFlow(txs []model.Transaction) model.SavingsFlow {
	var in, out decimal.Decimal
	for _, tx := range txs {
		switch tx.Type {
		case model.Savings:
			in = in.Add(tx.Amount)
		case model.SavingsWithdrawal:
			out = out.Add(tx.Amount)
		}
	}
	return model.SavingsFlow{
		Deposited: in.InexactFloat64(),
		Withdrawn: out.InexactFloat64(),
		Net:       in.Sub(out).InexactFloat64(),
	}
}
