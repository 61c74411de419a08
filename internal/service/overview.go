package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"portfolio_go/internal/domain"
)

// Overview serves the market-index snapshot for the dashboard header.
// It follows the same degrade-not-fail policy as per-symbol
// resolution: a stale snapshot beats an empty one.
type Overview struct {
	snapshots domain.SnapshotCache
	provider  domain.QuoteProvider
	symbols   []string
	logger    *slog.Logger
	now       func() time.Time
}

// NewOverview creates the market overview service for the given index
// symbols.
func NewOverview(snapshots domain.SnapshotCache, provider domain.QuoteProvider, symbols []string) *Overview {
	return &Overview{
		snapshots: snapshots,
		provider:  provider,
		symbols:   symbols,
		logger:    slog.Default().With("module", "overview"),
		now:       time.Now,
	}
}

// Get returns the market overview, served from the snapshot cache
// while fresh and refetched otherwise. When every index fetch fails,
// a stale snapshot is returned rather than nothing.
func (o *Overview) Get(ctx context.Context, ttl time.Duration) (*domain.MarketOverview, error) {
	now := o.now()

	entry, err := o.snapshots.GetSnapshot(ctx, domain.SnapshotKeyMarketData)
	if err != nil {
		o.logger.Warn("snapshot read failed, treating as miss", slog.Any("error", err))
		entry = nil
	}

	if entry.FreshWithin(ttl, now) {
		if overview := decodeOverview(entry.Payload); overview != nil {
			return overview, nil
		}
		// Undecodable snapshots are treated like misses.
	}

	overview := o.fetchAll(ctx)
	if len(overview.Indexes) == 0 {
		// Total provider failure: degrade to the stale snapshot.
		if entry != nil {
			if stale := decodeOverview(entry.Payload); stale != nil {
				return stale, nil
			}
		}
		return overview, nil
	}

	if payload, err := json.Marshal(overview); err == nil {
		if putErr := o.snapshots.PutSnapshot(ctx, domain.SnapshotKeyMarketData, payload, now); putErr != nil {
			o.logger.Warn("snapshot write failed", slog.Any("error", putErr))
		}
	}

	return overview, nil
}

// fetchAll pulls every index symbol concurrently. Individual failures
// drop the index from the overview instead of failing the whole call.
func (o *Overview) fetchAll(ctx context.Context) *domain.MarketOverview {
	var mu sync.Mutex
	var wg sync.WaitGroup
	overview := &domain.MarketOverview{FetchedAt: o.now()}

	for _, symbol := range o.symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			quote, err := o.provider.FetchQuote(ctx, sym)
			if err != nil {
				o.logger.Warn("index fetch failed",
					slog.String("symbol", sym), slog.Any("error", err))
				return
			}
			mu.Lock()
			overview.Indexes = append(overview.Indexes, *quote)
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return overview
}

func decodeOverview(payload []byte) *domain.MarketOverview {
	var overview domain.MarketOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		return nil
	}
	return &overview
}
