package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"portfolio_go/internal/domain"
)

// Poller periodically recomputes the portfolio valuation in the
// background. It never invalidates the cache: re-fetching stays
// bounded by the per-call TTL, so the poll cadence cannot exhaust the
// provider quota.
type Poller struct {
	valuation *Valuation
	holdings  domain.HoldingStore
	ttl       time.Duration
	interval  time.Duration
	onUpdate  func(*domain.ValuationSnapshot)
	logger    *slog.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewPoller creates a background valuation poller. onUpdate receives
// every successfully computed snapshot and may be nil.
func NewPoller(valuation *Valuation, holdings domain.HoldingStore, ttl, interval time.Duration, onUpdate func(*domain.ValuationSnapshot)) *Poller {
	return &Poller{
		valuation: valuation,
		holdings:  holdings,
		ttl:       ttl,
		interval:  interval,
		onUpdate:  onUpdate,
		logger:    slog.Default().With("module", "poller"),
	}
}

// Start begins polling until the context is cancelled or Stop is
// called. The first valuation runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	if err := p.runOnce(ctx); err != nil {
		p.logger.Warn("initial valuation failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("valuation polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("valuation polling stopped")
				return
			case <-ticker.C:
				if err := p.runOnce(ctx); err != nil {
					p.logger.Warn("background valuation failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// runOnce performs one poll cycle with retry on holding-store reads.
// Aggregation itself only fails on cancellation, which is not retried.
func (p *Poller) runOnce(ctx context.Context) error {
	var holdings []*domain.Holding
	var lastErr error

	for i := 0; i < 3; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s
			delay := time.Duration(1<<uint(i-1)) * time.Second
			p.logger.Info("retrying holdings read", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		var err error
		holdings, err = p.holdings.ListHoldings(ctx)
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		p.logger.Warn("holdings read attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	if lastErr != nil {
		return lastErr
	}

	snapshot, err := p.valuation.Aggregate(ctx, holdings, p.ttl)
	if err != nil {
		return err
	}

	p.logger.Debug("background valuation computed",
		slog.Int("holdings", len(snapshot.Holdings)),
		slog.String("total_value", snapshot.TotalValue.String()),
		slog.Bool("degraded", snapshot.Degraded()),
	)

	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}
