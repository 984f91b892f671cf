package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

// EvaluateObjectives compares each objective with the period's matching
// transactions (same category and type). Statuses are ordered by category,
// then type, then id.
func EvaluateObjectives(objectives []model.Objective, periodTxs []model.Transaction) []model.ObjectiveStatus {
	type key struct {
		category string
		typ      model.TxType
	}
	sums := make(map[key]decimal.Decimal)
	for _, tx := range periodTxs {
		k := key{tx.Category, tx.Type}
		sums[k] = sums[k].Add(tx.Amount)
	}

	statuses := make([]model.ObjectiveStatus, 0, len(objectives))
	for _, o := range objectives {
		actual := sums[key{o.Category, o.Type}]
		st := model.ObjectiveStatus{
			Objective: o,
			Actual:    actual.InexactFloat64(),
		}
		if o.Limit.IsPositive() {
			st.PercentOfLimit = actual.Div(o.Limit).Mul(hundred).InexactFloat64()
		}
		switch {
		case o.IsCeiling():
			st.Violated = actual.GreaterThan(o.Limit)
		case o.IsFloor():
			st.Violated = actual.LessThan(o.Limit)
		}
		statuses = append(statuses, st)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i].Objective, statuses[j].Objective
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})

	return statuses
}

// ObjectiveAlerts extracts the violated spending ceilings with their
// overage, largest first. Savings shortfalls are not alerts.
func ObjectiveAlerts(statuses []model.ObjectiveStatus) []model.ObjectiveAlert {
	var alerts []model.ObjectiveAlert
	for _, st := range statuses {
		if !st.Violated || !st.Objective.IsCeiling() {
			continue
		}
		alerts = append(alerts, model.ObjectiveAlert{
			Objective: st.Objective,
			Actual:    st.Actual,
			Overage:   decimal.NewFromFloat(st.Actual).Sub(st.Objective.Limit).InexactFloat64(),
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Overage > alerts[j].Overage
	})
	return alerts
}
