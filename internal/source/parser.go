// Package source discovers and decodes exported budget ledger snapshots.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

// ErrNoLedger is returned when a data directory holds no snapshot at all.
var ErrNoLedger = errors.New("no ledger snapshots found")

// ParseResult holds the output of decoding a single snapshot file.
type ParseResult struct {
	Ledger      model.Ledger
	ParseErrors int
	Err         error
}

// ParseFile reads a snapshot file and decodes it into a ledger.
func ParseFile(df DiscoveredFile) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	res := Decode(data)
	if res.Err != nil {
		res.Err = fmt.Errorf("decoding %s: %w", df.Path, res.Err)
	}
	return res
}

// Decode parses snapshot bytes. Two shapes are accepted:
//
//   - an object of store keys, whose transaction and objective entries hold
//     either an array or a string containing the serialized array
//   - a bare array of transactions
//
// Records are deduplicated by id, the last occurrence wins. Records that
// cannot be represented are skipped and counted in ParseErrors.
func Decode(data []byte) ParseResult {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ParseResult{}
	}

	var (
		rawTxs  []RawTransaction
		rawObjs []RawObjective
		res     ParseResult
	)

	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &rawTxs); err != nil {
			return ParseResult{Err: err}
		}
	case '{':
		var store map[string]json.RawMessage
		if err := json.Unmarshal(data, &store); err != nil {
			return ParseResult{Err: err}
		}
		if v, ok := store[TransactionsKey]; ok {
			if err := decodeStoreValue(v, &rawTxs); err != nil {
				res.ParseErrors++
			}
		}
		if v, ok := store[ObjectivesKey]; ok {
			if err := decodeStoreValue(v, &rawObjs); err != nil {
				res.ParseErrors++
			}
		}
	default:
		return ParseResult{Err: errors.New("unrecognized snapshot shape")}
	}

	txIndex := make(map[string]int, len(rawTxs))
	for _, raw := range rawTxs {
		tx, ok := normalizeTransaction(raw)
		if !ok {
			res.ParseErrors++
			continue
		}
		if tx.ID != "" {
			if i, seen := txIndex[tx.ID]; seen {
				res.Ledger.Transactions[i] = tx
				continue
			}
			txIndex[tx.ID] = len(res.Ledger.Transactions)
		}
		res.Ledger.Transactions = append(res.Ledger.Transactions, tx)
	}

	objIndex := make(map[string]int, len(rawObjs))
	for _, raw := range rawObjs {
		obj, ok := normalizeObjective(raw)
		if !ok {
			res.ParseErrors++
			continue
		}
		if obj.ID != "" {
			if i, seen := objIndex[obj.ID]; seen {
				res.Ledger.Objectives[i] = obj
				continue
			}
			objIndex[obj.ID] = len(res.Ledger.Objectives)
		}
		res.Ledger.Objectives = append(res.Ledger.Objectives, obj)
	}

	return res
}

// decodeStoreValue unmarshals a store value that is either the array itself
// or a JSON string holding it. null leaves dst untouched.
func decodeStoreValue(v json.RawMessage, dst any) error {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	if v[0] == '"' {
		var inner string
		if err := json.Unmarshal(v, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			return nil
		}
		v = []byte(inner)
	}
	return json.Unmarshal(v, dst)
}

func normalizeTransaction(raw RawTransaction) (model.Transaction, bool) {
	typ, ok := model.ParseTxType(raw.Type.String())
	if !ok {
		return model.Transaction{}, false
	}
	date, _ := model.ParseDate(raw.Date.String())
	amount, _ := ParseAmount(first(raw.Montant, raw.Amount))
	return model.Transaction{
		ID:       raw.ID.String(),
		Date:     date,
		Type:     typ,
		Category: NormalizeCategory(first(raw.Categorie, raw.Category)),
		Amount:   amount,
	}, true
}

func normalizeObjective(raw RawObjective) (model.Objective, bool) {
	typ, ok := model.ParseTxType(raw.Type.String())
	if !ok || !model.IsObjectiveType(typ) {
		return model.Objective{}, false
	}
	limit, ok := ParseAmount(first(raw.Limite, raw.Limit))
	if !ok || !limit.IsPositive() {
		return model.Objective{}, false
	}
	return model.Objective{
		ID:       raw.ID.String(),
		Category: NormalizeCategory(first(raw.Categorie, raw.Category)),
		Type:     typ,
		Limit:    limit,
	}, true
}

// NormalizeCategory trims a category label and substitutes the default
// category for blank ones.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.DefaultCategory
	}
	return s
}

// plainAmount matches plain decimal text: no exponent, at most one
// separator, a bounded number of digits.
var plainAmount = regexp.MustCompile(`^[+-]?(\d{1,18}(\.\d{0,12})?|\.\d{1,12})$`)

// ParseAmount parses a stored amount. A comma is accepted as decimal
// separator, spaces and a currency sign are ignored, and negative values
// are folded to their magnitude. Unparsable input, including exponent
// notation, yields zero and false.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	if !plainAmount.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if f := d.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, false
	}
	return d.Abs(), true
}
