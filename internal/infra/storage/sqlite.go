package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"portfolio_go/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the durable sqlite store backing the quote cache, the
// snapshot cache, and the holdings table. Quotes survive process
// restarts so a first page load can value a portfolio without
// re-fetching every symbol.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance. An empty path
// resolves to the per-user data directory.
func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		var err error
		dbPath, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.CacheEntry{}, &domain.SnapshotEntry{}, &domain.HoldingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "PortfolioGo", "data", "portfolio.db"), nil
}

// ======================================================================================
// Quote Cache Operations
// ======================================================================================

// Get retrieves the cached entry for a symbol. A miss is (nil, nil);
// store failures come back as CacheError so callers can degrade them
// to misses.
func (s *Storage) Get(ctx context.Context, symbol string) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	err := s.db.WithContext(ctx).First(&entry, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, &domain.CacheError{Op: "get", Err: err}
	}
	return &entry, nil
}

// Put upserts the quote for its symbol, replacing any prior entry.
func (s *Storage) Put(ctx context.Context, quote *domain.Quote, storedAt time.Time) error {
	entry := domain.NewCacheEntry(quote, storedAt)
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return &domain.CacheError{Op: "put", Err: err}
	}
	return nil
}

// InvalidateAll clears every cached quote and the market overview
// snapshot, forcing the next resolution cycle to fetch live.
func (s *Storage) InvalidateAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&domain.CacheEntry{}).Error; err != nil {
		return &domain.CacheError{Op: "invalidate", Err: err}
	}
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&domain.SnapshotEntry{}).Error; err != nil {
		return &domain.CacheError{Op: "invalidate", Err: err}
	}
	return nil
}

// ======================================================================================
// Snapshot Cache Operations (single well-known keys, e.g. "market_data")
// ======================================================================================

// GetSnapshot retrieves a snapshot row by key; a miss is (nil, nil).
func (s *Storage) GetSnapshot(ctx context.Context, key string) (*domain.SnapshotEntry, error) {
	var entry domain.SnapshotEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.CacheError{Op: "get", Err: err}
	}
	return &entry, nil
}

// PutSnapshot upserts a snapshot payload under its key.
func (s *Storage) PutSnapshot(ctx context.Context, key string, payload []byte, storedAt time.Time) error {
	entry := domain.SnapshotEntry{Key: key, Payload: payload, StoredAt: storedAt}
	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return &domain.CacheError{Op: "put", Err: err}
	}
	return nil
}

// DeleteSnapshot removes a snapshot row by key.
func (s *Storage) DeleteSnapshot(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&domain.SnapshotEntry{}).Error; err != nil {
		return &domain.CacheError{Op: "invalidate", Err: err}
	}
	return nil
}

// ======================================================================================
// Holdings Operations
// ======================================================================================

// ListHoldings returns every persisted position.
func (s *Storage) ListHoldings(ctx context.Context) ([]*domain.Holding, error) {
	var records []domain.HoldingRecord
	if err := s.db.WithContext(ctx).Order("symbol").Find(&records).Error; err != nil {
		return nil, err
	}

	holdings := make([]*domain.Holding, 0, len(records))
	for i := range records {
		holdings = append(holdings, records[i].Holding())
	}
	return holdings, nil
}

// SaveHolding upserts the position for a symbol.
func (s *Storage) SaveHolding(ctx context.Context, h *domain.Holding) error {
	var record domain.HoldingRecord
	err := s.db.WithContext(ctx).First(&record, "symbol = ?", h.Symbol).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	record.Symbol = h.Symbol
	record.Shares = h.Shares
	record.CostBasisPerShare = h.CostBasisPerShare
	record.AcquiredAt = h.AcquiredAt
	if !h.LastKnownPrice.IsZero() {
		record.LastKnownPrice = h.LastKnownPrice
	}

	return s.db.WithContext(ctx).Save(&record).Error
}

// RecordLastKnownPrice stores the most recent resolved price on the
// holding record itself, feeding the resolver's last-known fallback.
func (s *Storage) RecordLastKnownPrice(ctx context.Context, symbol string, price decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&domain.HoldingRecord{}).
		Where("symbol = ?", symbol).
		Update("last_known_price", price).Error
}

// DeleteHolding removes the position for a symbol.
func (s *Storage) DeleteHolding(ctx context.Context, symbol string) error {
	return s.db.WithContext(ctx).Where("symbol = ?", symbol).Delete(&domain.HoldingRecord{}).Error
}
