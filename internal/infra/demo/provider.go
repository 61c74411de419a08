// Package demo provides a deterministic stand-in for the live market
// data provider, used when no API key is configured. It is a separate
// collaborator behind the same interface; the price resolver never
// falls back to synthetic data on its own.
package demo

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Provider generates symbol-seeded pseudo-random quotes. The same
// symbol always maps to the same base price so demo portfolios look
// stable across runs.
type Provider struct {
	now func() time.Time
}

// NewProvider creates a demo quote provider.
func NewProvider() *Provider {
	return &Provider{now: time.Now}
}

// FetchQuote returns a deterministic quote for the symbol. The base
// price is fixed per symbol; the intraday wiggle is seeded by symbol
// and calendar day so repeated calls within a day agree.
func (p *Provider) FetchQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}

	now := p.now().UTC()
	rng := rand.New(rand.NewSource(int64(seed(symbol)) + now.Unix()/86400))

	base := 20 + float64(seed(symbol)%4800)/10 // 20.0 .. 499.9
	wiggle := (rng.Float64() - 0.5) * base * 0.04
	price := decimal.NewFromFloat(base + wiggle).Round(2)
	open := decimal.NewFromFloat(base).Round(2)
	change := price.Sub(open)

	var changePct decimal.Decimal
	if !open.IsZero() {
		changePct = change.Div(open).Mul(decimal.NewFromInt(100)).Round(4)
	}

	return &domain.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Open:          open,
		High:          decimal.Max(price, open),
		Low:           decimal.Min(price, open),
		Volume:        int64(rng.Intn(9_000_000) + 1_000_000),
		AsOf:          now,
	}, nil
}

func seed(symbol string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return h.Sum32()
}
