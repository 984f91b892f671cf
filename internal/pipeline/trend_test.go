package pipeline

import (
	"testing"

	"github.com/theirongolddev/cbudget/internal/model"
)

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   model.Direction
		pct    float64
	}{
		{"up", []float64{100, 105, 120}, model.Up, 20},
		{"down", []float64{100, 90, 80}, model.Down, -20},
		{"exactly ten is stable", []float64{100, 0, 110}, model.Stable, 10},
		{"zero start", []float64{0, 50, 500}, model.Stable, 0},
		{"uses last three", []float64{1, 1, 1, 100, 100, 100}, model.Stable, 0},
		{"too short", []float64{100, 500}, model.Stable, 0},
		{"empty", nil, model.Stable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectTrend(tt.series)
			if got.Direction != tt.want {
				t.Errorf("Direction = %s, want %s", got.Direction, tt.want)
			}
			if !approx(got.Percent, tt.pct) {
				t.Errorf("Percent = %v, want %v", got.Percent, tt.pct)
			}
		})
	}
}

func TestDetectBalanceTrend(t *testing.T) {
	tests := []struct {
		series []float64
		want   model.Direction
	}{
		{[]float64{-50, 0, 60}, model.Up},
		{[]float64{500, 450, 399}, model.Down},
		{[]float64{1000, 0, 1100}, model.Stable},
		{[]float64{10, 20, 15}, model.Stable},
	}
	for _, tt := range tests {
		if got := DetectBalanceTrend(tt.series); got.Direction != tt.want {
			t.Errorf("DetectBalanceTrend(%v) = %s, want %s", tt.series, got.Direction, tt.want)
		}
	}
}

func TestMonthlySeries(t *testing.T) {
	txs := []model.Transaction{
		tx(t, "1", "2024-12-05", model.VariableExpense, "X", "100"),
		tx(t, "2", "2025-01-05", model.FixedExpense, "X", "200"),
		tx(t, "3", "2025-02-05", model.VariableExpense, "X", "300"),
		tx(t, "4", "2025-02-06", model.Income, "X", "1000"),
		tx(t, "5", "", model.VariableExpense, "X", "999"),
	}

	got := MonthlySeries(txs, model.Period{Year: 2025, Month: 2}, 4, model.MetricExpenses)
	want := []model.MonthlyPoint{
		{Year: 2024, Month: 11, Value: 0},
		{Year: 2024, Month: 12, Value: 100},
		{Year: 2025, Month: 1, Value: 200},
		{Year: 2025, Month: 2, Value: 300},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	bal := MonthlySeries(txs, model.Period{Year: 2025, Month: 2}, 1, model.MetricBalance)
	if len(bal) != 1 || bal[0].Value != 700 {
		t.Errorf("balance series = %+v, want [700]", bal)
	}

	year := MonthlySeries(txs, model.Period{Year: 2025}, 12, model.MetricSavings)
	if len(year) != 12 || year[11].Month != 12 || year[0].Month != 1 {
		t.Errorf("year series bounds = %+v .. %+v", year[0], year[len(year)-1])
	}
}

func TestNotableTrends(t *testing.T) {
	txs := []model.Transaction{
		tx(t, "1", "2025-01-05", model.Income, "Salaire", "2000"),
		tx(t, "2", "2025-01-10", model.VariableExpense, "Courses", "200"),
		tx(t, "3", "2025-02-05", model.Income, "Salaire", "2000"),
		tx(t, "4", "2025-02-10", model.VariableExpense, "Courses", "250"),
		tx(t, "5", "2025-03-05", model.Income, "Salaire", "2000"),
		tx(t, "6", "2025-03-10", model.VariableExpense, "Courses", "400"),
	}

	got := NotableTrends(txs, model.Period{Year: 2025, Month: 3})
	// Expenses 200 -> 400 is +100%; balance 1800 -> 1600 drops by 200;
	// savings stay at zero.
	if len(got) != 2 {
		t.Fatalf("got %d trends, want 2: %+v", len(got), got)
	}
	if got[0].Metric != model.MetricExpenses || got[0].Direction != model.Up {
		t.Errorf("got[0] = %+v, want expenses up", got[0])
	}
	if got[1].Metric != model.MetricBalance || got[1].Direction != model.Down || got[1].Delta != -200 {
		t.Errorf("got[1] = %+v, want balance down by 200", got[1])
	}
}
