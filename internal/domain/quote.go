package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote represents a single price observation for one security.
// It is immutable once produced by a provider; missing numeric fields
// are coerced to zero at the provider boundary, never here.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        int64           `json:"volume"`
	AsOf          time.Time       `json:"as_of"`
}

// HasPrice reports whether the quote carries a usable (positive) price.
// A zero price from a partial provider response is treated as unusable
// so the resolver can keep walking its fallback chain.
func (q *Quote) HasPrice() bool {
	return q != nil && q.Price.IsPositive()
}

// ChangeDirection returns "positive", "negative", or "neutral"
func (q *Quote) ChangeDirection() string {
	if q.Change.IsPositive() {
		return "positive"
	}
	if q.Change.IsNegative() {
		return "negative"
	}
	return "neutral"
}
