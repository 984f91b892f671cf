package store

import (
	"sort"
	"strconv"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/theirongolddev/cbudget/internal/model"
)

// Hashable projections. hashstructure skips unexported fields, so dates and
// decimals are hashed through their canonical text.
type txProjection struct {
	ID       string
	Date     string
	Type     string
	Category string
	Amount   string
}

type objectiveProjection struct {
	ID       string
	Category string
	Type     string
	Limit    string
}

type memoInput struct {
	Transactions []txProjection
	Objectives   []objectiveProjection
	Params       any
}

// ContentKey hashes the content of a ledger together with the parameters of
// a computation. Reordering the ledger does not change the key; params must
// be a value hashstructure can walk (exported scalar fields).
func ContentKey(ledger model.Ledger, params any) (string, error) {
	in := memoInput{
		Transactions: make([]txProjection, len(ledger.Transactions)),
		Objectives:   make([]objectiveProjection, len(ledger.Objectives)),
		Params:       params,
	}
	for i, t := range ledger.Transactions {
		in.Transactions[i] = txProjection{
			ID:       t.ID,
			Date:     t.Date.String(),
			Type:     string(t.Type),
			Category: t.Category,
			Amount:   t.Amount.String(),
		}
	}
	for i, o := range ledger.Objectives {
		in.Objectives[i] = objectiveProjection{
			ID:       o.ID,
			Category: o.Category,
			Type:     string(o.Type),
			Limit:    o.Limit.String(),
		}
	}

	// Sorting rather than SlicesAsSets: set hashing cancels out duplicate
	// elements.
	sort.Slice(in.Transactions, func(i, j int) bool {
		return lessTx(in.Transactions[i], in.Transactions[j])
	})
	sort.Slice(in.Objectives, func(i, j int) bool {
		a, b := in.Objectives[i], in.Objectives[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Limit < b.Limit
	})

	h, err := hashstructure.Hash(in, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(h, 16), nil
}

func lessTx(a, b txProjection) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.Amount < b.Amount
}
