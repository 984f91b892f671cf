package pipeline

import (
	"math"

	"github.com/theirongolddev/cbudget/internal/model"
)

// BaseScore is the health score before any bonus or penalty.
const BaseScore = 50

// Score component names.
const (
	ComponentBase            = "base"
	ComponentSavingsRate     = "savings_rate"
	ComponentBalance         = "balance"
	ComponentActivity        = "activity"
	ComponentBalanceMomentum = "balance_momentum"
	ComponentSavingsMomentum = "savings_momentum"
	ComponentBenchmark       = "benchmark"
)

// HealthInput gathers everything the health score depends on.
type HealthInput struct {
	Totals        model.Totals
	Previous      model.Totals
	HasPrevious   bool
	ActivityCount int
	Averages      model.YearAverages
}

// ScoreBreakdown lists the base score and every non-zero adjustment.
func ScoreBreakdown(in HealthInput) []model.ScoreComponent {
	comps := []model.ScoreComponent{{Name: ComponentBase, Points: BaseScore}}
	add := func(name string, pts int) {
		if pts != 0 {
			comps = append(comps, model.ScoreComponent{Name: name, Points: pts})
		}
	}

	add(ComponentSavingsRate, savingsRatePoints(in.Totals.SavingsRate))
	add(ComponentBalance, balancePoints(in.Totals))

	switch {
	case in.ActivityCount >= 5:
		add(ComponentActivity, 10)
	case in.ActivityCount >= 2:
		add(ComponentActivity, 5)
	}

	if in.HasPrevious {
		if in.Totals.Balance >= in.Previous.Balance {
			add(ComponentBalanceMomentum, 5)
		}
		if in.Totals.Savings >= in.Previous.Savings {
			add(ComponentSavingsMomentum, 5)
		}
	}

	if in.Averages.ActiveMonths > 1 {
		expenses, avg := in.Totals.Expenses(), in.Averages.AvgExpenses()
		switch {
		case expenses <= avg:
			add(ComponentBenchmark, 10)
		case expenses <= avg*1.1:
			add(ComponentBenchmark, 5)
		}
	}

	return comps
}

// Tiers are upper-inclusive: a 10% rate earns the 5-10% bonus.
func savingsRatePoints(rate float64) int {
	switch {
	case rate > 20:
		return 25
	case rate > 15:
		return 20
	case rate > 10:
		return 15
	case rate > 5:
		return 10
	case rate > 0:
		return 5
	}
	return 0
}

func balancePoints(t model.Totals) int {
	switch {
	case t.Balance > 0:
		ratio := t.Balance / math.Max(t.Income, 1)
		switch {
		case ratio >= 0.2:
			return 20
		case ratio >= 0.1:
			return 15
		case ratio >= 0.05:
			return 10
		}
		return 5
	case t.Balance < 0:
		return -15
	}
	return 0
}

// HealthScore sums the breakdown and clamps it to [0, 100].
func HealthScore(in HealthInput) int {
	score := 0
	for _, c := range ScoreBreakdown(in) {
		score += c.Points
	}
	return min(max(score, 0), 100)
}

// Rating labels a score.
func Rating(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "average"
	case score >= 20:
		return "needs improvement"
	}
	return "critical"
}

// ComputeHealth returns the score with its rating and breakdown.
func ComputeHealth(in HealthInput) model.Health {
	score := HealthScore(in)
	return model.Health{
		Score:      score,
		Rating:     Rating(score),
		Components: ScoreBreakdown(in),
	}
}
