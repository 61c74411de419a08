package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CacheEntry is the persisted form of a Quote, one row per symbol
// (upsert semantics). Owned exclusively by the quote cache; only the
// bulk invalidator ever deletes rows.
type CacheEntry struct {
	Symbol        string          `gorm:"primaryKey" json:"symbol"`
	Price         decimal.Decimal `gorm:"type:numeric" json:"price"`
	Change        decimal.Decimal `gorm:"type:numeric" json:"change"`
	ChangePercent decimal.Decimal `gorm:"type:numeric" json:"change_percent"`
	Open          decimal.Decimal `gorm:"type:numeric" json:"open"`
	High          decimal.Decimal `gorm:"type:numeric" json:"high"`
	Low           decimal.Decimal `gorm:"type:numeric" json:"low"`
	Volume        int64           `json:"volume"`
	AsOf          time.Time       `json:"as_of"`
	StoredAt      time.Time       `gorm:"index" json:"stored_at"`
}

// FreshWithin reports whether the entry is still usable under the
// given TTL: now - storedAt < ttl.
func (e *CacheEntry) FreshWithin(ttl time.Duration, now time.Time) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.StoredAt) < ttl
}

// Quote reconstructs the cached quote payload.
func (e *CacheEntry) Quote() *Quote {
	return &Quote{
		Symbol:        e.Symbol,
		Price:         e.Price,
		Change:        e.Change,
		ChangePercent: e.ChangePercent,
		Open:          e.Open,
		High:          e.High,
		Low:           e.Low,
		Volume:        e.Volume,
		AsOf:          e.AsOf,
	}
}

// NewCacheEntry builds the persisted form of a quote.
func NewCacheEntry(q *Quote, storedAt time.Time) *CacheEntry {
	return &CacheEntry{
		Symbol:        q.Symbol,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Volume:        q.Volume,
		AsOf:          q.AsOf,
		StoredAt:      storedAt,
	}
}

// SnapshotKeyMarketData is the single well-known key under which the
// aggregate market overview is cached.
const SnapshotKeyMarketData = "market_data"

// SnapshotEntry is a larger-granularity cache row with a single
// well-known key instead of per-symbol keys (e.g. the market overview
// under "market_data"). The payload is serialized JSON.
type SnapshotEntry struct {
	Key      string    `gorm:"primaryKey" json:"key"`
	Payload  []byte    `json:"payload"`
	StoredAt time.Time `json:"stored_at"`
}

// FreshWithin reports whether the snapshot is still usable under ttl.
func (e *SnapshotEntry) FreshWithin(ttl time.Duration, now time.Time) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.StoredAt) < ttl
}

// HoldingRecord is the persisted form of a Holding, including the
// last-known price recorded outside the quote cache.
type HoldingRecord struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Symbol            string          `gorm:"index" json:"symbol"`
	Shares            decimal.Decimal `gorm:"type:numeric" json:"shares"`
	CostBasisPerShare decimal.Decimal `gorm:"type:numeric" json:"cost_basis_per_share"`
	AcquiredAt        time.Time       `json:"acquired_at"`
	LastKnownPrice    decimal.Decimal `gorm:"type:numeric" json:"last_known_price"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Holding converts the record to its domain form.
func (r *HoldingRecord) Holding() *Holding {
	return &Holding{
		Symbol:            r.Symbol,
		Shares:            r.Shares,
		CostBasisPerShare: r.CostBasisPerShare,
		AcquiredAt:        r.AcquiredAt,
		LastKnownPrice:    r.LastKnownPrice,
	}
}
