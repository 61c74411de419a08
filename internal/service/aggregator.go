package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
)

// maxConcurrentResolutions bounds the per-snapshot fan-out so a large
// portfolio cannot stampede the provider.
const maxConcurrentResolutions = 5

var oneHundred = decimal.NewFromInt(100)

// Valuation aggregates per-holding resolved prices into a portfolio
// snapshot. The cache is an explicit dependency, never ambient state.
type Valuation struct {
	resolver *Resolver
	cache    domain.QuoteCache
	holdings domain.HoldingStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewValuation creates the aggregation service. The holding store may
// be nil when the caller manages last-known prices itself.
func NewValuation(resolver *Resolver, cache domain.QuoteCache, holdings domain.HoldingStore) *Valuation {
	return &Valuation{
		resolver: resolver,
		cache:    cache,
		holdings: holdings,
		logger:   slog.Default().With("module", "valuation"),
		now:      time.Now,
	}
}

// Aggregate resolves every holding concurrently, joins, and computes
// portfolio totals. One slow or degraded symbol delays but never
// corrupts the snapshot for the others; the only error this returns
// is context cancellation.
func (s *Valuation) Aggregate(ctx context.Context, holdings []*domain.Holding, ttl time.Duration) (*domain.ValuationSnapshot, error) {
	resolved := make([]domain.ResolvedPrice, len(holdings))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentResolutions)

	for i, h := range holdings {
		wg.Add(1)
		go func(idx int, holding *domain.Holding) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			resolved[idx] = s.resolver.ResolvePrice(ctx, ResolveRequest{
				Symbol:         holding.Symbol,
				TTL:            ttl,
				LastKnownPrice: holding.LastKnownPrice,
				CostBasis:      holding.CostBasisPerShare,
			})
		}(i, h)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		// Abandon the join; in-flight fetches still land in the cache.
		return nil, ctx.Err()
	case <-done:
	}

	snapshot := s.compute(holdings, resolved)
	s.recordLastKnown(ctx, snapshot)
	return snapshot, nil
}

// compute turns resolved prices into the derived snapshot. All
// arithmetic is synchronous and decimal-exact until the final
// two-place rounding of the percentage fields.
func (s *Valuation) compute(holdings []*domain.Holding, resolved []domain.ResolvedPrice) *domain.ValuationSnapshot {
	snapshot := &domain.ValuationSnapshot{
		Holdings:   make([]domain.HoldingValuation, 0, len(holdings)),
		TotalValue: decimal.Zero,
		TotalGain:  decimal.Zero,
		ComputedAt: s.now(),
	}

	for i, h := range holdings {
		price := resolved[i].Price
		value := h.Shares.Mul(price)
		gain := price.Sub(h.CostBasisPerShare).Mul(h.Shares)

		var gainPercent decimal.Decimal
		if h.CostBasisPerShare.IsPositive() {
			gainPercent = price.Sub(h.CostBasisPerShare).
				Div(h.CostBasisPerShare).Mul(oneHundred).Round(2)
		}

		snapshot.Holdings = append(snapshot.Holdings, domain.HoldingValuation{
			Symbol:       h.Symbol,
			Shares:       h.Shares,
			CurrentPrice: price,
			Source:       resolved[i].Source,
			Value:        value,
			Gain:         gain,
			GainPercent:  gainPercent,
		})

		snapshot.TotalValue = snapshot.TotalValue.Add(value)
		snapshot.TotalGain = snapshot.TotalGain.Add(gain)
	}

	// Allocations only exist against a positive total; otherwise they
	// all stay zero and no division happens.
	if snapshot.TotalValue.IsPositive() {
		for i := range snapshot.Holdings {
			snapshot.Holdings[i].AllocationPercent = snapshot.Holdings[i].Value.
				Div(snapshot.TotalValue).Mul(oneHundred).Round(2)
		}
	}

	return snapshot
}

// recordLastKnown persists trustworthy resolved prices back onto the
// holding records, feeding the resolver's last-known fallback on a
// future run when both provider and cache are gone.
func (s *Valuation) recordLastKnown(ctx context.Context, snapshot *domain.ValuationSnapshot) {
	if s.holdings == nil {
		return
	}
	for i := range snapshot.Holdings {
		hv := &snapshot.Holdings[i]
		if hv.Source.IsStale() || !hv.CurrentPrice.IsPositive() {
			continue
		}
		if err := s.holdings.RecordLastKnownPrice(ctx, hv.Symbol, hv.CurrentPrice); err != nil {
			s.logger.Warn("failed to record last known price",
				slog.String("symbol", hv.Symbol), slog.Any("error", err))
		}
	}
}

// Refresh clears the quote cache unconditionally, guaranteeing that
// the next aggregation attempts a live fetch for every symbol. It is
// only ever user-triggered; TTL expiry alone bounds automatic
// re-fetching so the provider quota is not exhausted.
func (s *Valuation) Refresh(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return err
	}
	s.logger.Info("quote cache invalidated")
	return nil
}
