package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

// GroupByCategory totals transactions of the given types per category,
// sorted by total descending. Equal totals are ordered by category name.
// With no types every transaction is grouped.
func GroupByCategory(txs []model.Transaction, types ...model.TxType) []model.CategoryStat {
	type acc struct {
		total decimal.Decimal
		count int
	}

	keep := make(map[model.TxType]bool, len(types))
	for _, t := range types {
		keep[t] = true
	}

	catMap := make(map[string]*acc)
	var grand decimal.Decimal
	for _, tx := range txs {
		if len(keep) > 0 && !keep[tx.Type] {
			continue
		}
		a, ok := catMap[tx.Category]
		if !ok {
			a = &acc{}
			catMap[tx.Category] = a
		}
		a.total = a.total.Add(tx.Amount)
		a.count++
		grand = grand.Add(tx.Amount)
	}

	stats := make([]model.CategoryStat, 0, len(catMap))
	for name, a := range catMap {
		cs := model.CategoryStat{
			Category: name,
			Total:    a.total.InexactFloat64(),
			Count:    a.count,
		}
		if grand.IsPositive() {
			cs.SharePercent = a.total.Div(grand).Mul(hundred).InexactFloat64()
		}
		stats = append(stats, cs)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}
		return stats[i].Category < stats[j].Category
	})

	return stats
}

// TopN returns the first n stats. n <= 0 returns all of them.
func TopN(stats []model.CategoryStat, n int) []model.CategoryStat {
	if n <= 0 || n >= len(stats) {
		return stats
	}
	return stats[:n]
}

// TopExpenseCategories ranks the fixed and variable expenses of a whole
// year by category.
func TopExpenseCategories(txs []model.Transaction, year, n int) []model.CategoryStat {
	return TopN(GroupByCategory(FilterByYear(txs, year), model.FixedExpense, model.VariableExpense), n)
}

// RenameCategories returns a copy of the ledger with every transaction and
// objective category passed through rename.
func RenameCategories(ledger model.Ledger, rename func(string) string) model.Ledger {
	out := model.Ledger{
		Transactions: make([]model.Transaction, len(ledger.Transactions)),
		Objectives:   make([]model.Objective, len(ledger.Objectives)),
	}
	for i, tx := range ledger.Transactions {
		tx.Category = rename(tx.Category)
		out.Transactions[i] = tx
	}
	for i, o := range ledger.Objectives {
		o.Category = rename(o.Category)
		out.Objectives[i] = o
	}
	return out
}
