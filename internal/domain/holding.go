package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a user's position in one security. Shares and cost basis
// are validated at construction; aggregation assumes they are sane.
type Holding struct {
	Symbol            string          `json:"symbol"`
	Shares            decimal.Decimal `json:"shares"`
	CostBasisPerShare decimal.Decimal `json:"cost_basis_per_share"`
	AcquiredAt        time.Time       `json:"acquired_at"`

	// LastKnownPrice is the most recent price recorded on the holding
	// itself, outside the quote cache. Zero means none recorded.
	LastKnownPrice decimal.Decimal `json:"last_known_price"`
}

// NewHolding validates and builds a Holding. Negative shares or cost
// basis never make it past this point.
func NewHolding(symbol string, shares, costBasisPerShare decimal.Decimal, acquiredAt time.Time) (*Holding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if shares.IsNegative() {
		return nil, fmt.Errorf("%w: negative shares %s", ErrInvalidHolding, shares)
	}
	if costBasisPerShare.IsNegative() {
		return nil, fmt.Errorf("%w: negative cost basis %s", ErrInvalidHolding, costBasisPerShare)
	}

	return &Holding{
		Symbol:            symbol,
		Shares:            shares,
		CostBasisPerShare: costBasisPerShare,
		AcquiredAt:        acquiredAt,
	}, nil
}

// CostBasisTotal returns shares * cost basis per share.
func (h *Holding) CostBasisTotal() decimal.Decimal {
	return h.Shares.Mul(h.CostBasisPerShare)
}
