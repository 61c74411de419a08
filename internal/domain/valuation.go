package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource identifies which step of the fallback chain produced a
// resolved price. Ordered from most to least trustworthy.
type PriceSource string

const (
	SourceCache      PriceSource = "cache"       // fresh cache hit
	SourceLive       PriceSource = "live"        // successful provider fetch
	SourceStaleCache PriceSource = "stale_cache" // expired cache entry, fetch failed
	SourceLastKnown  PriceSource = "last_known"  // price recorded on the holding
	SourceCostBasis  PriceSource = "cost_basis"  // price the user originally paid
	SourceNone       PriceSource = "none"        // nothing available, price is zero
)

// IsStale reports whether the source indicates degraded data, usable
// for deciding whether to show a staleness indicator.
func (s PriceSource) IsStale() bool {
	switch s {
	case SourceCache, SourceLive:
		return false
	default:
		return true
	}
}

// ResolvedPrice is the outcome of one walk down the fallback chain.
type ResolvedPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Source PriceSource     `json:"source"`
}

// HoldingValuation is one priced position inside a snapshot.
type HoldingValuation struct {
	Symbol            string          `json:"symbol"`
	Shares            decimal.Decimal `json:"shares"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	Source            PriceSource     `json:"source"`
	Value             decimal.Decimal `json:"value"`
	Gain              decimal.Decimal `json:"gain"`
	GainPercent       decimal.Decimal `json:"gain_percent"`
	AllocationPercent decimal.Decimal `json:"allocation_percent"`
}

// ValuationSnapshot is a derived view over holdings and resolved
// prices. It is recomputed on every aggregation call and never stored
// as authoritative.
type ValuationSnapshot struct {
	Holdings   []HoldingValuation `json:"holdings"`
	TotalValue decimal.Decimal    `json:"total_value"`
	TotalGain  decimal.Decimal    `json:"total_gain"`
	ComputedAt time.Time          `json:"computed_at"`
}

// Degraded reports whether any holding fell back past the live/cache
// sources.
func (s *ValuationSnapshot) Degraded() bool {
	for i := range s.Holdings {
		if s.Holdings[i].Source.IsStale() {
			return true
		}
	}
	return false
}

// MarketOverview aggregates index quotes under a single well-known
// cache key, independent of any portfolio.
type MarketOverview struct {
	Indexes   []Quote   `json:"indexes"`
	FetchedAt time.Time `json:"fetched_at"`
}
