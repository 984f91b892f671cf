// Package notify publishes budget alerts to a message broker.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/cbudget/internal/model"
)

// MessageTypeObjectiveViolated is the type of ObjectiveViolation messages.
const MessageTypeObjectiveViolated = "objective.violated"

// ObjectiveViolation announces that an objective became violated in a
// period. Overage is only set for spending ceilings.
type ObjectiveViolation struct {
	MessageID     string    `json:"message_id"`
	Type          string    `json:"type"`
	Period        string    `json:"period"`
	ObjectiveID   string    `json:"objective_id"`
	Category      string    `json:"category"`
	ObjectiveType string    `json:"objective_type"`
	Limit         string    `json:"limit"`
	Actual        float64   `json:"actual"`
	Percent       float64   `json:"percent_of_limit"`
	Overage       float64   `json:"overage,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewObjectiveViolation builds a message with a fresh id.
func NewObjectiveViolation(period model.Period, st model.ObjectiveStatus, at time.Time) *ObjectiveViolation {
	msg := &ObjectiveViolation{
		MessageID:     uuid.NewString(),
		Type:          MessageTypeObjectiveViolated,
		Period:        period.String(),
		ObjectiveID:   st.Objective.ID,
		Category:      st.Objective.Category,
		ObjectiveType: string(st.Objective.Type),
		Limit:         st.Objective.Limit.String(),
		Actual:        st.Actual,
		Percent:       st.PercentOfLimit,
		Timestamp:     at.UTC(),
	}
	if st.Objective.IsCeiling() {
		msg.Overage = st.Actual - st.Objective.Limit.InexactFloat64()
	}
	return msg
}

// ToJSON converts the message to JSON bytes.
func (m *ObjectiveViolation) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ObjectiveViolationFromJSON decodes a message.
func ObjectiveViolationFromJSON(data []byte) (*ObjectiveViolation, error) {
	var msg ObjectiveViolation
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
