package pipeline

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

// tx builds a transaction; an unparsable date leaves it undated.
func tx(t *testing.T, id, date string, typ model.TxType, category string, amount string) model.Transaction {
	t.Helper()
	d, _ := model.ParseDate(date)
	return model.Transaction{
		ID:       id,
		Date:     d,
		Type:     typ,
		Category: category,
		Amount:   decimal.RequireFromString(amount),
	}
}

// marchLedger is the reference March 2025 month.
func marchLedger(t *testing.T) []model.Transaction {
	t.Helper()
	return []model.Transaction{
		tx(t, "1", "2025-03-01", model.Income, "Salaire", "2000"),
		tx(t, "2", "2025-03-03", model.FixedExpense, "Loyer", "600"),
		tx(t, "3", "2025-03-10", model.VariableExpense, "Courses", "300"),
		tx(t, "4", "2025-03-15", model.Savings, "Livret A", "200"),
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

var ledgerPeriod = model.Period{Year: 2025, Month: 3}

func modelLedger(t *testing.T) model.Ledger {
	t.Helper()
	return model.Ledger{
		Transactions: marchLedger(t),
		Objectives: []model.Objective{{
			ID:       "o1",
			Category: "Courses",
			Type:     model.VariableExpense,
			Limit:    decimal.NewFromInt(250),
		}},
	}
}
