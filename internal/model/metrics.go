package model

import (
	"fmt"
	"time"
)

// Period selects a calendar month, or a whole year when Month is 0.
type Period struct {
	Year  int
	Month int // 1-12, or 0 for the whole year
}

// IsYear reports whether the period spans a whole calendar year.
func (p Period) IsYear() bool {
	return p.Month == 0
}

// Previous returns the immediately preceding period. January wraps to
// December of the prior year; a year selection steps back one year.
func (p Period) Previous() Period {
	if p.IsYear() {
		return Period{Year: p.Year - 1}
	}
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Range returns the half-open [start, end) window of the period. With a
// payday d in 2..28 each month runs from day d to day d of the next month,
// and a year runs from January d to January d of the next year. Any other
// payday uses calendar boundaries.
func (p Period) Range(payday int) (start, end time.Time) {
	day := 1
	if payday >= 2 && payday <= 28 {
		day = payday
	}
	if p.IsYear() {
		start = time.Date(p.Year, time.January, day, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	}
	start = time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// String renders "2025-03" or "2025".
func (p Period) String() string {
	if p.IsYear() {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Totals holds per-type sums for a set of transactions.
type Totals struct {
	Income          float64 `json:"income"`
	FixedExpense    float64 `json:"fixed_expense"`
	VariableExpense float64 `json:"variable_expense"`
	Savings         float64 `json:"savings"`
	Balance         float64 `json:"balance"`
	SavingsRate     float64 `json:"savings_rate"`
	Count           int     `json:"count"`
}

// Expenses returns fixed plus variable expenses.
func (t Totals) Expenses() float64 {
	return t.FixedExpense + t.VariableExpense
}

// SavingsFlow summarizes deposits and withdrawals of savings.
type SavingsFlow struct {
	Deposited float64 `json:"deposited"`
	Withdrawn float64 `json:"withdrawn"`
	Net       float64 `json:"net"`
}

// Comparison holds the signed percentage change of each total against the
// previous period. When HasPrevious is false the variations carry no meaning.
type Comparison struct {
	HasPrevious     bool    `json:"has_previous"`
	Previous        Totals  `json:"previous"`
	Income          float64 `json:"income"`
	FixedExpense    float64 `json:"fixed_expense"`
	VariableExpense float64 `json:"variable_expense"`
	Savings         float64 `json:"savings"`
	Balance         float64 `json:"balance"`
}

// YearAverages is the "typical month" baseline of a year.
type YearAverages struct {
	Year               int     `json:"year"`
	AvgIncome          float64 `json:"avg_income"`
	AvgFixedExpense    float64 `json:"avg_fixed_expense"`
	AvgVariableExpense float64 `json:"avg_variable_expense"`
	AvgSavings         float64 `json:"avg_savings"`
	ActiveMonths       int     `json:"active_months"`
}

// AvgExpenses returns the average fixed plus variable expenses.
func (a YearAverages) AvgExpenses() float64 {
	return a.AvgFixedExpense + a.AvgVariableExpense
}

// AvgBalance returns the average monthly balance.
func (a YearAverages) AvgBalance() float64 {
	return a.AvgIncome - a.AvgFixedExpense - a.AvgVariableExpense - a.AvgSavings
}

// CategoryStat holds aggregated amounts for one category.
type CategoryStat struct {
	Category     string  `json:"category"`
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
	SharePercent float64 `json:"share_percent"`
}

// MonthlyPoint is one entry of a monthly series.
type MonthlyPoint struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// Metric names a tracked monthly series.
type Metric string

const (
	MetricExpenses Metric = "expenses"
	MetricSavings  Metric = "savings"
	MetricBalance  Metric = "balance"
)

// Direction classifies a trend.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Stable Direction = "stable"
)

// Trend is the classified trajectory of a metric over its last three months.
type Trend struct {
	Metric    Metric    `json:"metric"`
	Direction Direction `json:"direction"`
	Percent   float64   `json:"percent"`
	Delta     float64   `json:"delta"`
}

// ScoreComponent is one additive part of a health score.
type ScoreComponent struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Health is a health score with its rating and breakdown.
type Health struct {
	Score      int              `json:"score"`
	Rating     string           `json:"rating"`
	Components []ScoreComponent `json:"components"`
}

// Forecast projects the year-end position of the selected year.
type Forecast struct {
	MonthsRemaining  int     `json:"months_remaining"`
	ProjectedBalance float64 `json:"projected_balance"`
	ProjectedSavings float64 `json:"projected_savings"`
}

// ObjectiveStatus compares an objective with the actual amount of a period.
type ObjectiveStatus struct {
	Objective      Objective `json:"objective"`
	Actual         float64   `json:"actual"`
	PercentOfLimit float64   `json:"percent_of_limit"`
	Violated       bool      `json:"violated"`
}

// ObjectiveAlert is a violated spending ceiling.
type ObjectiveAlert struct {
	Objective Objective `json:"objective"`
	Actual    float64   `json:"actual"`
	Overage   float64   `json:"overage"`
}

// Insight is a generated observation or piece of advice.
type Insight struct {
	Level   string `json:"level"` // "info", "warning", "success"
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Dashboard gathers every derived metric of a period.
type Dashboard struct {
	Period        Period            `json:"period"`
	Start         time.Time         `json:"start"`
	End           time.Time         `json:"end"`
	Totals        Totals            `json:"totals"`
	SavingsFlow   SavingsFlow       `json:"savings_flow"`
	Comparison    Comparison        `json:"comparison"`
	Averages      YearAverages      `json:"averages"`
	TopCategories []CategoryStat    `json:"top_categories"`
	Trends        []Trend           `json:"trends"`
	Health        Health            `json:"health"`
	Forecast      *Forecast         `json:"forecast,omitempty"`
	Objectives    []ObjectiveStatus `json:"objectives"`
	Alerts        []ObjectiveAlert  `json:"alerts"`
	Suggestions   []Insight         `json:"suggestions"`
}
