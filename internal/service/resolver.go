package service

import (
	"context"
	"log/slog"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ResolveRequest carries everything the resolver may need for one
// symbol. LastKnownPrice and CostBasis are optional; zero means absent.
type ResolveRequest struct {
	Symbol         string
	TTL            time.Duration
	LastKnownPrice decimal.Decimal
	CostBasis      decimal.Decimal
}

// Resolver walks the price fallback chain for a single symbol:
// fresh cache, live fetch, stale cache, last-known price, cost basis,
// zero. Provider and cache failures never escape; they only degrade
// the source tag of the result.
type Resolver struct {
	cache    domain.QuoteCache
	provider domain.QuoteProvider
	metrics  *infra.Metrics
	logger   *slog.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewResolver creates a price resolver. Dependencies are explicit so
// tests can substitute in-memory fakes.
func NewResolver(cache domain.QuoteCache, provider domain.QuoteProvider, metrics *infra.Metrics) *Resolver {
	return &Resolver{
		cache:    cache,
		provider: provider,
		metrics:  metrics,
		logger:   slog.Default().With("module", "resolver"),
		now:      time.Now,
	}
}

// ResolvePrice resolves one symbol. Steps are strictly sequential: a
// later step is never attempted once an earlier one yields a usable
// (positive) price. Resolution is independent per symbol, so one
// symbol degrading has no effect on any other.
func (r *Resolver) ResolvePrice(ctx context.Context, req ResolveRequest) domain.ResolvedPrice {
	now := r.now()

	entry, err := r.cache.Get(ctx, req.Symbol)
	if err != nil {
		// An unavailable cache reads as a miss.
		r.logger.Warn("cache read failed, treating as miss",
			slog.String("symbol", req.Symbol), slog.Any("error", err))
		entry = nil
	}

	// Step 1: fresh cache hit.
	if entry.FreshWithin(req.TTL, now) && entry.Price.IsPositive() {
		r.metrics.RecordCacheHit()
		return domain.ResolvedPrice{Symbol: req.Symbol, Price: entry.Price, Source: domain.SourceCache}
	}
	r.metrics.RecordCacheMiss()

	// Step 2: live fetch, upserting the cache on success.
	quote, err := r.fetchLive(ctx, req.Symbol)
	if err != nil {
		r.metrics.RecordFetchError()
		r.logger.Warn("live fetch failed",
			slog.String("symbol", req.Symbol),
			slog.String("kind", string(domain.FetchKindOf(err))),
			slog.Any("error", err))
	} else if quote.HasPrice() {
		return domain.ResolvedPrice{Symbol: req.Symbol, Price: quote.Price, Source: domain.SourceLive}
	}

	r.metrics.RecordFallback()

	// Step 3: stale cache beats no data.
	if entry != nil && entry.Price.IsPositive() {
		return domain.ResolvedPrice{Symbol: req.Symbol, Price: entry.Price, Source: domain.SourceStaleCache}
	}

	// Step 4: last price recorded on the holding itself.
	if req.LastKnownPrice.IsPositive() {
		return domain.ResolvedPrice{Symbol: req.Symbol, Price: req.LastKnownPrice, Source: domain.SourceLastKnown}
	}

	// Step 5: the price the user originally paid.
	if req.CostBasis.IsPositive() {
		return domain.ResolvedPrice{Symbol: req.Symbol, Price: req.CostBasis, Source: domain.SourceCostBasis}
	}

	// Step 6: never blank, just zero.
	return domain.ResolvedPrice{Symbol: req.Symbol, Price: decimal.Zero, Source: domain.SourceNone}
}

// fetchLive fetches one symbol from the provider, coalescing
// concurrent requests for the same symbol into a single in-flight
// call. The fetch runs on a detached context: a cancelled caller
// abandons the wait, but a quote that completes afterwards is still
// written to the cache.
func (r *Resolver) fetchLive(ctx context.Context, symbol string) (*domain.Quote, error) {
	ch := r.group.DoChan(symbol, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)

		start := time.Now()
		quote, err := r.provider.FetchQuote(fetchCtx, symbol)
		if err != nil {
			return nil, err
		}
		r.metrics.RecordFetch(time.Since(start).Nanoseconds())

		if putErr := r.cache.Put(fetchCtx, quote, r.now()); putErr != nil {
			// A failed cache write must not fail the resolution; the
			// fetched price is already usable.
			r.metrics.RecordCacheWriteError()
			r.logger.Warn("cache write failed",
				slog.String("symbol", symbol), slog.Any("error", putErr))
		}
		return quote, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Quote), nil
	}
}
