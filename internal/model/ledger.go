// Package model defines the ledger records and the derived metric types.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory replaces an empty or missing transaction category.
const DefaultCategory = "Other"

// DateLayout is the canonical storage form of a transaction date.
const DateLayout = "2006-01-02"

// TxType is the closed set of transaction kinds. The sign of an amount is
// implied by its type; stored amounts are never negative.
type TxType string

const (
	Income            TxType = "Income"
	FixedExpense      TxType = "FixedExpense"
	VariableExpense   TxType = "VariableExpense"
	Savings           TxType = "Savings"
	SavingsWithdrawal TxType = "SavingsWithdrawal"
	Reimbursement     TxType = "Reimbursement"
	Transfer          TxType = "Transfer"
)

// AllTxTypes lists every transaction type in display order.
var AllTxTypes = []TxType{
	Income, FixedExpense, VariableExpense, Savings,
	SavingsWithdrawal, Reimbursement, Transfer,
}

// txTypeAliases maps lowercased vocabulary, stored labels and English names
// alike, to the canonical type.
var txTypeAliases = map[string]TxType{
	"revenus":            Income,
	"revenu":             Income,
	"factures":           FixedExpense,
	"facture":            FixedExpense,
	"dépenses":           VariableExpense,
	"depenses":           VariableExpense,
	"dépense":            VariableExpense,
	"épargnes":           Savings,
	"epargnes":           Savings,
	"épargne":            Savings,
	"reprise d'épargne":  SavingsWithdrawal,
	"reprise d'epargne":  SavingsWithdrawal,
	"remboursement":      Reimbursement,
	"remboursements":     Reimbursement,
	"transfert de fond":  Transfer,
	"transfert de fonds": Transfer,
}

func init() {
	for _, t := range AllTxTypes {
		txTypeAliases[strings.ToLower(string(t))] = t
	}
}

// ParseTxType resolves a stored type label. The second result is false for
// labels outside the closed vocabulary.
func ParseTxType(raw string) (TxType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "’", "'")
	t, ok := txTypeAliases[key]
	return t, ok
}

// Valid reports whether t is one of the known types.
func (t TxType) Valid() bool {
	for _, k := range AllTxTypes {
		if t == k {
			return true
		}
	}
	return false
}

// IsExpense reports whether t counts toward expenses.
func (t TxType) IsExpense() bool {
	return t == FixedExpense || t == VariableExpense
}

// Label returns the stored vocabulary label for t.
func (t TxType) Label() string {
	switch t {
	case Income:
		return "Revenus"
	case FixedExpense:
		return "Factures"
	case VariableExpense:
		return "Dépenses"
	case Savings:
		return "Épargnes"
	case SavingsWithdrawal:
		return "Reprise d'épargne"
	case Reimbursement:
		return "Remboursement"
	case Transfer:
		return "Transfert de fond"
	}
	return string(t)
}

// Date is a calendar date without time of day. The zero Date is invalid and
// never matches a period.
type Date struct {
	time.Time
}

// NewDate builds a Date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the canonical YYYY-MM-DD form. Anything else yields the
// zero Date and false.
func ParseDate(s string) (Date, bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, false
	}
	return Date{Time: t}, true
}

// Valid reports whether the date was parsed successfully.
func (d Date) Valid() bool {
	return !d.IsZero()
}

// String returns the canonical form, or "" for an invalid date.
func (d Date) String() string {
	if !d.Valid() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the canonical form, or null for an invalid date.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts the canonical form; any other value leaves the date
// invalid.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d, _ = ParseDate(strings.Trim(string(b), `"`))
	return nil
}

// Transaction is one normalized ledger entry.
type Transaction struct {
	ID       string          `json:"id"`
	Date     Date            `json:"date"`
	Type     TxType          `json:"type"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Objective is a per-category spending ceiling or savings floor.
type Objective struct {
	ID       string          `json:"id"`
	Category string          `json:"category"`
	Type     TxType          `json:"type"`
	Limit    decimal.Decimal `json:"limit"`
}

// IsObjectiveType reports whether t can carry an objective.
func IsObjectiveType(t TxType) bool {
	return t == FixedExpense || t == VariableExpense || t == Savings
}

// IsCeiling reports whether exceeding the limit is the violation.
func (o Objective) IsCeiling() bool {
	return o.Type.IsExpense()
}

// IsFloor reports whether falling short of the limit is the violation.
func (o Objective) IsFloor() bool {
	return o.Type == Savings
}

// Ledger is an immutable snapshot of the stored records handed to the engine.
type Ledger struct {
	Transactions []Transaction
	Objectives   []Objective
}
