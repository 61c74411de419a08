package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"
	"portfolio_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Downloader *infra.LogoDownloader
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Portfolio Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Cache.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Initialize Logo Downloader
	downloader, err := infra.NewLogoDownloader()
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Logo downloader ready")

	return nil
}

// SyncAssets downloads logos for every held symbol in the background.
// Failures are logged and skipped; logos are cosmetic.
func (b *Bootstrap) SyncAssets(ctx context.Context) {
	slog.Info("🔄 Starting asset synchronization...")

	holdings, err := b.Storage.ListHoldings(ctx)
	if err != nil {
		slog.Warn("Failed to list holdings for asset sync", slog.Any("error", err))
		return
	}

	uniqueSymbols := make(map[string]bool)
	for _, h := range holdings {
		uniqueSymbols[h.Symbol] = true
	}
	for _, s := range b.Config.Market.IndexSymbols {
		uniqueSymbols[s] = true
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for symbol := range uniqueSymbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			path, err := b.Downloader.DownloadLogo(sym)
			if err != nil {
				slog.Warn("Failed to download logo", slog.String("symbol", sym), slog.Any("error", err))
				return
			}
			slog.Debug("Logo synced", slog.String("symbol", sym), slog.String("path", path))
		}(symbol)
	}

	wg.Wait()
	slog.Info("✨ Asset synchronization completed")
}

// SeedDemoHoldings inserts a starter portfolio when the holdings table
// is empty and demo mode is on, so a first run has something to value.
func (b *Bootstrap) SeedDemoHoldings(ctx context.Context) error {
	if !b.Config.Provider.Demo {
		return nil
	}

	existing, err := b.Storage.ListHoldings(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seeds := []struct {
		symbol string
		shares int64
		cost   float64
	}{
		{"AAPL", 10, 145.30},
		{"MSFT", 5, 310.20},
		{"GOOG", 8, 128.55},
	}

	for _, s := range seeds {
		h, err := domain.NewHolding(s.symbol, decimal.NewFromInt(s.shares), decimal.NewFromFloat(s.cost), time.Now().AddDate(-1, 0, 0))
		if err != nil {
			return err
		}
		if err := b.Storage.SaveHolding(ctx, h); err != nil {
			return err
		}
	}

	slog.Info("✅ Demo holdings seeded", slog.Int("count", len(seeds)))
	return nil
}
