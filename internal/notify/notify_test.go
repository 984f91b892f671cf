package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // capped at 30s
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestNewObjectiveViolation(t *testing.T) {
	at := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
	st := model.ObjectiveStatus{
		Objective: model.Objective{
			ID:       "o1",
			Category: "Courses",
			Type:     model.VariableExpense,
			Limit:    decimal.NewFromInt(250),
		},
		Actual:         300,
		PercentOfLimit: 120,
		Violated:       true,
	}

	msg := NewObjectiveViolation(model.Period{Year: 2025, Month: 3}, st, at)
	if _, err := uuid.Parse(msg.MessageID); err != nil {
		t.Errorf("MessageID %q is not a UUID: %v", msg.MessageID, err)
	}
	if msg.Period != "2025-03" || msg.Overage != 50 || msg.Limit != "250" {
		t.Errorf("msg = %+v", msg)
	}

	other := NewObjectiveViolation(model.Period{Year: 2025, Month: 3}, st, at)
	if other.MessageID == msg.MessageID {
		t.Error("message ids should be unique")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ObjectiveViolationFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.MessageID != msg.MessageID || !back.Timestamp.Equal(at) || back.Category != "Courses" {
		t.Errorf("decoded = %+v", back)
	}
}

func TestNewObjectiveViolation_SavingsHasNoOverage(t *testing.T) {
	st := model.ObjectiveStatus{
		Objective: model.Objective{ID: "s", Category: "Livret", Type: model.Savings, Limit: decimal.NewFromInt(200)},
		Actual:    50,
		Violated:  true,
	}
	msg := NewObjectiveViolation(model.Period{Year: 2025, Month: 3}, st, time.Now())
	if msg.Overage != 0 {
		t.Errorf("Overage = %v, want 0 for a savings floor", msg.Overage)
	}
}
