package source

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Keys of the browser key-value store the ledger is persisted under.
const (
	TransactionsKey = "budget-transactions"
	ObjectivesKey   = "budget-objectifs-limites"
)

// RawTransaction is one stored transaction record. Both the stored French
// field names and English aliases are accepted.
type RawTransaction struct {
	ID        FlexString `json:"id"`
	Date      FlexString `json:"date"`
	Type      FlexString `json:"type"`
	Categorie FlexString `json:"categorie"`
	Category  FlexString `json:"category,omitempty"`
	Montant   FlexString `json:"montant"`
	Amount    FlexString `json:"amount,omitempty"`
}

// RawObjective is one stored objective record.
type RawObjective struct {
	ID        FlexString `json:"id"`
	Categorie FlexString `json:"categorie"`
	Category  FlexString `json:"category,omitempty"`
	Type      FlexString `json:"type"`
	Limite    FlexString `json:"limite"`
	Limit     FlexString `json:"limit,omitempty"`
}

// FlexString decodes a JSON string, number or boolean into its text form.
// null and objects decode to "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case 'n', '{', '[':
		*f = ""
	default:
		*f = FlexString(strings.TrimSpace(string(b)))
	}
	return nil
}

func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// first returns the first non-blank value.
func first(vals ...FlexString) string {
	for _, v := range vals {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

// DiscoveredFile represents a ledger snapshot found during directory scanning.
type DiscoveredFile struct {
	Path string
	Name string // file name without extension
}
