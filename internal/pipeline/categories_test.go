package pipeline

import (
	"sort"
	"testing"

	"github.com/theirongolddev/cbudget/internal/model"
)

func TestGroupByCategory(t *testing.T) {
	txs := []model.Transaction{
		tx(t, "1", "2025-03-01", model.VariableExpense, "Courses", "120"),
		tx(t, "2", "2025-03-02", model.VariableExpense, "Courses", "80"),
		tx(t, "3", "2025-03-03", model.FixedExpense, "Loyer", "600"),
		tx(t, "4", "2025-03-04", model.VariableExpense, "Loisirs", "200"),
		tx(t, "5", "2025-03-05", model.Income, "Salaire", "2000"),
	}

	got := GroupByCategory(txs, model.FixedExpense, model.VariableExpense)
	if len(got) != 3 {
		t.Fatalf("got %d categories, want 3", len(got))
	}
	if got[0].Category != "Loyer" || got[0].Total != 600 || got[0].Count != 1 {
		t.Errorf("got[0] = %+v, want Loyer 600", got[0])
	}
	// Courses and Loisirs tie at 200; ties are ordered by name.
	if got[1].Category != "Courses" || got[1].Count != 2 || got[2].Category != "Loisirs" {
		t.Errorf("tie order = %s, %s; want Courses, Loisirs", got[1].Category, got[2].Category)
	}
	if !approx(got[0].SharePercent, 60) {
		t.Errorf("SharePercent = %v, want 60", got[0].SharePercent)
	}

	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Total > got[j].Total }) {
		t.Error("stats not sorted by total descending")
	}

	all := GroupByCategory(txs)
	if len(all) != 4 || all[0].Category != "Salaire" {
		t.Errorf("untyped grouping = %+v", all)
	}
}

func TestTopN(t *testing.T) {
	stats := []model.CategoryStat{{Category: "a"}, {Category: "b"}, {Category: "c"}}
	tests := []struct {
		n    int
		want int
	}{
		{2, 2}, {3, 3}, {10, 3}, {0, 3}, {-1, 3},
	}
	for _, tt := range tests {
		if got := TopN(stats, tt.n); len(got) != tt.want {
			t.Errorf("TopN(%d) len = %d, want %d", tt.n, len(got), tt.want)
		}
	}
}

func TestTopExpenseCategories_WholeYear(t *testing.T) {
	txs := []model.Transaction{
		tx(t, "1", "2025-01-15", model.VariableExpense, "Courses", "100"),
		tx(t, "2", "2025-06-15", model.VariableExpense, "Courses", "100"),
		tx(t, "3", "2025-11-15", model.FixedExpense, "Loyer", "150"),
		tx(t, "4", "2025-11-15", model.Savings, "Livret", "1000"),
		tx(t, "5", "2024-11-15", model.FixedExpense, "Ancien", "5000"),
	}

	got := TopExpenseCategories(txs, 2025, 5)
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2", len(got))
	}
	if got[0].Category != "Courses" || got[0].Total != 200 {
		t.Errorf("got[0] = %+v, want Courses 200", got[0])
	}
}

func TestRenameCategories(t *testing.T) {
	ledger := modelLedger(t)
	renamed := RenameCategories(ledger, func(s string) string {
		if s == "Courses" {
			return "Alimentation"
		}
		return s
	})

	if renamed.Transactions[2].Category != "Alimentation" || renamed.Objectives[0].Category != "Alimentation" {
		t.Errorf("renamed = %+v", renamed)
	}
	if ledger.Transactions[2].Category != "Courses" {
		t.Error("input ledger was mutated")
	}
}
