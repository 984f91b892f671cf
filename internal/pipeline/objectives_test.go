package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

func objective(id, category string, typ model.TxType, limit int64) model.Objective {
	return model.Objective{ID: id, Category: category, Type: typ, Limit: decimal.NewFromInt(limit)}
}

func TestEvaluateObjectives(t *testing.T) {
	txs := []model.Transaction{
		tx(t, "1", "2025-03-02", model.VariableExpense, "Courses", "180"),
		tx(t, "2", "2025-03-12", model.VariableExpense, "Courses", "120"),
		tx(t, "3", "2025-03-05", model.FixedExpense, "Courses", "999"),
		tx(t, "4", "2025-03-15", model.Savings, "Livret A", "150"),
		tx(t, "5", "2025-03-16", model.FixedExpense, "Loyer", "600"),
	}
	objs := []model.Objective{
		objective("o3", "Loyer", model.FixedExpense, 600),
		objective("o1", "Courses", model.VariableExpense, 250),
		objective("o2", "Livret A", model.Savings, 200),
		objective("o4", "Vacances", model.Savings, 100),
	}

	got := EvaluateObjectives(objs, txs)
	if len(got) != 4 {
		t.Fatalf("got %d statuses, want 4", len(got))
	}

	byID := make(map[string]model.ObjectiveStatus)
	for _, st := range got {
		byID[st.Objective.ID] = st
	}

	courses := byID["o1"]
	if courses.Actual != 300 || !courses.Violated || !approx(courses.PercentOfLimit, 120) {
		t.Errorf("Courses = %+v, want actual 300, violated, 120%%", courses)
	}
	if loyer := byID["o3"]; loyer.Violated || loyer.PercentOfLimit != 100 {
		t.Errorf("Loyer at limit = %+v, want not violated", loyer)
	}
	if livret := byID["o2"]; !livret.Violated || livret.Actual != 150 {
		t.Errorf("Livret A = %+v, want violated shortfall", livret)
	}
	if vac := byID["o4"]; !vac.Violated || vac.Actual != 0 {
		t.Errorf("Vacances = %+v, want violated with zero actual", vac)
	}

	if got[0].Objective.Category != "Courses" || got[3].Objective.Category != "Vacances" {
		t.Errorf("order = %s .. %s, want by category", got[0].Objective.Category, got[3].Objective.Category)
	}
}

func TestObjectiveAlerts(t *testing.T) {
	statuses := []model.ObjectiveStatus{
		{Objective: objective("a", "Courses", model.VariableExpense, 250), Actual: 300, Violated: true},
		{Objective: objective("b", "Loyer", model.FixedExpense, 500), Actual: 600, Violated: true},
		{Objective: objective("c", "Livret", model.Savings, 200), Actual: 50, Violated: true},
		{Objective: objective("d", "Loisirs", model.VariableExpense, 100), Actual: 20},
	}

	got := ObjectiveAlerts(statuses)
	if len(got) != 2 {
		t.Fatalf("got %d alerts, want 2 (savings shortfalls excluded)", len(got))
	}
	if got[0].Objective.ID != "b" || got[0].Overage != 100 {
		t.Errorf("got[0] = %+v, want Loyer overage 100", got[0])
	}
	if got[1].Overage != 50 {
		t.Errorf("got[1].Overage = %v, want 50", got[1].Overage)
	}
}
