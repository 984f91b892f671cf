package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/cbudget/internal/model"
)

func TestBuildDashboard_March(t *testing.T) {
	ledger := model.Ledger{
		Transactions: marchLedger(t),
		Objectives:   []model.Objective{objective("o1", "Courses", model.VariableExpense, 250)},
	}
	now := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)

	d := BuildDashboard(ledger, DashboardParams{
		Period: model.Period{Year: 2025, Month: 3},
		Now:    now,
	})

	if d.Totals.Balance != 900 || d.Totals.SavingsRate != 10 {
		t.Errorf("Totals = %+v", d.Totals)
	}
	if d.Health.Score != 85 || d.Health.Rating != "excellent" {
		t.Errorf("Health = %+v, want 85 excellent", d.Health)
	}
	if d.Comparison.HasPrevious {
		t.Error("HasPrevious = true, want false (no February data)")
	}
	if d.Forecast == nil {
		t.Fatal("Forecast = nil, want a projection")
	}
	if d.Forecast.MonthsRemaining != 9 || d.Forecast.ProjectedBalance != 900+900*9 {
		t.Errorf("Forecast = %+v", d.Forecast)
	}
	if len(d.Objectives) != 1 || !d.Objectives[0].Violated {
		t.Fatalf("Objectives = %+v, want Courses violated", d.Objectives)
	}
	if len(d.Alerts) != 1 || d.Alerts[0].Overage != 50 {
		t.Errorf("Alerts = %+v, want overage 50", d.Alerts)
	}
	if len(d.TopCategories) != 2 || d.TopCategories[0].Category != "Loyer" {
		t.Errorf("TopCategories = %+v", d.TopCategories)
	}
	if wantStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC); !d.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", d.Start, wantStart)
	}
}

func TestBuildDashboard_EmptyLedger(t *testing.T) {
	d := BuildDashboard(model.Ledger{}, DashboardParams{
		Period: model.Period{Year: 2025, Month: 3},
		Now:    time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
	})

	if d.Totals != (model.Totals{}) {
		t.Errorf("Totals = %+v, want zero", d.Totals)
	}
	if d.Health.Score != 50 {
		t.Errorf("Health.Score = %d, want 50", d.Health.Score)
	}
	if d.Forecast != nil {
		t.Errorf("Forecast = %+v, want undefined for an empty ledger", d.Forecast)
	}
	if len(d.Trends) != 0 || len(d.Alerts) != 0 {
		t.Errorf("Trends = %+v, Alerts = %+v; want none", d.Trends, d.Alerts)
	}
}

func TestBuildDashboard_PastYearHasNoForecast(t *testing.T) {
	d := BuildDashboard(model.Ledger{Transactions: marchLedger(t)}, DashboardParams{
		Period: model.Period{Year: 2025},
		Now:    time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
	if d.Forecast != nil {
		t.Errorf("Forecast = %+v, want nil for a past year", d.Forecast)
	}

	d = BuildDashboard(model.Ledger{Transactions: marchLedger(t)}, DashboardParams{
		Period: model.Period{Year: 2025, Month: 3},
	})
	if d.Forecast != nil {
		t.Error("Forecast should be nil without a reference time")
	}
}

func TestBuildDashboard_PreviousMonthWrap(t *testing.T) {
	txs := []model.Transaction{
		tx(t, "1", "2024-12-05", model.Income, "Salaire", "1000"),
		tx(t, "2", "2025-01-05", model.Income, "Salaire", "1500"),
	}
	d := BuildDashboard(model.Ledger{Transactions: txs}, DashboardParams{
		Period: model.Period{Year: 2025, Month: 1},
	})
	if !d.Comparison.HasPrevious {
		t.Fatal("HasPrevious = false, want December of the prior year")
	}
	if d.Comparison.Income != 50 {
		t.Errorf("Income variation = %v, want 50", d.Comparison.Income)
	}
}

func TestBuildDashboard_Payday(t *testing.T) {
	txs := []model.Transaction{
		tx(t, "1", "2025-02-25", model.Income, "Salaire", "2000"),
		tx(t, "2", "2025-03-10", model.VariableExpense, "Courses", "100"),
		tx(t, "3", "2025-03-26", model.Income, "Salaire", "2100"),
	}
	d := BuildDashboard(model.Ledger{Transactions: txs}, DashboardParams{
		Period: model.Period{Year: 2025, Month: 2},
		Payday: 25,
	})
	if d.Totals.Income != 2000 || d.Totals.VariableExpense != 100 {
		t.Errorf("Totals = %+v, want the Feb 25 - Mar 25 window", d.Totals)
	}
}

func TestBuildDashboard_ReorderStable(t *testing.T) {
	txs := append(marchLedger(t),
		tx(t, "5", "2025-02-10", model.VariableExpense, "Courses", "90"),
		tx(t, "6", "2025-01-10", model.VariableExpense, "Loisirs", "90"),
	)
	rev := make([]model.Transaction, len(txs))
	for i := range txs {
		rev[len(txs)-1-i] = txs[i]
	}
	p := DashboardParams{Period: model.Period{Year: 2025, Month: 3}, Now: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)}

	a := BuildDashboard(model.Ledger{Transactions: txs}, p)
	b := BuildDashboard(model.Ledger{Transactions: rev}, p)
	if a.Totals != b.Totals || a.Health.Score != b.Health.Score {
		t.Errorf("reordering changed the result: %+v vs %+v", a.Totals, b.Totals)
	}
	for i := range a.TopCategories {
		if a.TopCategories[i] != b.TopCategories[i] {
			t.Errorf("TopCategories[%d] = %+v vs %+v", i, a.TopCategories[i], b.TopCategories[i])
		}
	}
}

func TestSuggestions(t *testing.T) {
	d := model.Dashboard{
		Totals: model.Totals{Income: 1000, Savings: 50, Balance: -100, SavingsRate: 5},
		Objectives: []model.ObjectiveStatus{
			{Objective: objective("s", "Livret", model.Savings, 200), Actual: 50, Violated: true},
		},
		TopCategories: []model.CategoryStat{{Category: "Loyer", SharePercent: 55}},
	}

	got := Suggestions(d)
	titles := make(map[string]bool)
	for _, in := range got {
		titles[in.Title] = true
	}
	for _, want := range []string{"Negative balance", "Low savings rate", "Savings goal missed: Livret", "Concentrated spending"} {
		if !titles[want] {
			t.Errorf("missing suggestion %q in %+v", want, got)
		}
	}

	healthy := model.Dashboard{
		Totals: model.Totals{Income: 1000, Savings: 300, Balance: 300, SavingsRate: 30},
		Health: model.Health{Score: 95},
	}
	got = Suggestions(healthy)
	if len(got) != 1 || got[0].Level != LevelSuccess {
		t.Errorf("healthy suggestions = %+v, want a single success", got)
	}
}
