package pipeline

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/store"
)

// memoParams is the hashed form of DashboardParams. Now only matters
// through the month it falls in.
type memoParams struct {
	Period   string
	Payday   int
	NowMonth string
	TopN     int
}

// DashboardKey is the content key of a dashboard computation: the same
// ledger content and parameters always map to the same key.
func DashboardKey(ledger model.Ledger, p DashboardParams) (string, error) {
	mp := memoParams{
		Period: p.Period.String(),
		Payday: p.Payday,
		TopN:   p.TopN,
	}
	if !p.Now.IsZero() {
		mp.NowMonth = p.Now.Format("2006-01")
	}
	return store.ContentKey(ledger, mp)
}

// CachedDashboard returns the memoized dashboard for the ledger content and
// parameters, computing and storing it on a miss. Cache failures fall back
// to computing.
func CachedDashboard(cache *store.Cache, ledger model.Ledger, p DashboardParams) model.Dashboard {
	if cache == nil {
		return BuildDashboard(ledger, p)
	}

	key, err := DashboardKey(ledger, p)
	if err != nil {
		log.Debug().Err(err).Msg("hashing dashboard inputs")
		return BuildDashboard(ledger, p)
	}

	d, err := cache.GetDashboard(key)
	if err == nil {
		return d
	}
	if !errors.Is(err, store.ErrMiss) {
		log.Warn().Err(err).Msg("reading memoized dashboard")
	}

	d = BuildDashboard(ledger, p)
	if err := cache.PutDashboard(key, d); err != nil {
		log.Warn().Err(err).Msg("memoizing dashboard")
	}
	return d
}
