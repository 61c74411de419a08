package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"portfolio_go/internal/app"
	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"
	"portfolio_go/internal/infra/alphavantage"
	"portfolio_go/internal/infra/demo"
	"portfolio_go/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config

	// 4. Demo seeding + background logo sync
	if err := bootstrap.SeedDemoHoldings(ctx); err != nil {
		slog.Warn("Failed to seed demo holdings", slog.Any("error", err))
	}
	go bootstrap.SyncAssets(ctx)

	// 5. Quote provider: live Alpha Vantage or the deterministic demo
	// collaborator when no API key is configured.
	var provider domain.QuoteProvider
	if cfg.Provider.Demo {
		provider = demo.NewProvider()
		slog.InfoContext(ctx, "✅ Demo quote provider active")
	} else {
		provider = alphavantage.NewClient(cfg)
		slog.InfoContext(ctx, "✅ Alpha Vantage client ready")
	}

	// 6. Resolution pipeline: resolver -> valuation -> overview
	resolver := service.NewResolver(bootstrap.Storage, provider, infra.GlobalMetrics)
	valuation := service.NewValuation(resolver, bootstrap.Storage, bootstrap.Storage)
	overview := service.NewOverview(bootstrap.Storage, provider, cfg.Market.IndexSymbols)

	// 7. Background valuation poller
	if cfg.Poll.IntervalSec > 0 {
		poller := service.NewPoller(valuation, bootstrap.Storage, cfg.QuoteTTL(), cfg.PollInterval(), func(snap *domain.ValuationSnapshot) {
			slog.Info("📊 Portfolio valued",
				slog.Int("holdings", len(snap.Holdings)),
				slog.String("total_value", snap.TotalValue.StringFixed(2)),
				slog.String("total_gain", snap.TotalGain.StringFixed(2)),
				slog.Bool("degraded", snap.Degraded()),
			)
		})
		if err := poller.Start(ctx); err != nil {
			slog.Error("Failed to start valuation poller", slog.Any("error", err))
		}
		defer poller.Stop()
		slog.InfoContext(ctx, "✅ Valuation poller started", slog.Duration("interval", cfg.PollInterval()))
	}

	// 8. Prime the market overview once at startup
	if len(cfg.Market.IndexSymbols) > 0 {
		if mo, err := overview.Get(ctx, cfg.MarketTTL()); err == nil {
			slog.InfoContext(ctx, "✅ Market overview primed", slog.Int("indexes", len(mo.Indexes)))
		}
	}

	slog.InfoContext(ctx, "✨ Portfolio Go fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")

	metrics := infra.GlobalMetrics.Snapshot()
	slog.Info("Final cache stats",
		slog.Uint64("hits", metrics.CacheHits),
		slog.Uint64("misses", metrics.CacheMisses),
		slog.Uint64("live_fetches", metrics.LiveFetches),
		slog.Uint64("fallbacks", metrics.Fallbacks),
	)
}
