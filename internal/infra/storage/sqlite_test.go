package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"portfolio_go/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *Storage {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(&domain.CacheEntry{}, &domain.SnapshotEntry{}, &domain.HoldingRecord{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return &Storage{db: db}
}

func testQuote(symbol string, price float64) *domain.Quote {
	return &domain.Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(price),
		Volume: 1000,
		AsOf:   time.Now().UTC(),
	}
}

func TestQuoteCache_RoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	storedAt := time.Now().UTC()

	if err := s.Put(ctx, testQuote("AAPL", 190.12), storedAt); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, err := s.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a cache hit")
	}
	if !entry.Price.Equal(decimal.NewFromFloat(190.12)) {
		t.Errorf("expected price 190.12, got %v", entry.Price)
	}
	if !entry.StoredAt.Equal(storedAt) {
		t.Errorf("expected storedAt %v, got %v", storedAt, entry.StoredAt)
	}
}

func TestQuoteCache_MissIsNotAnError(t *testing.T) {
	s := setupTestDB(t)

	entry, err := s.Get(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("Get on missing symbol failed: %v", err)
	}
	if entry != nil {
		t.Error("expected nil entry on miss")
	}
}

func TestQuoteCache_PutReplacesPriorEntry(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	s.Put(ctx, testQuote("AAPL", 100), time.Now().Add(-2*time.Hour))
	if err := s.Put(ctx, testQuote("AAPL", 105), time.Now()); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	entry, _ := s.Get(ctx, "AAPL")
	if !entry.Price.Equal(decimal.NewFromInt(105)) {
		t.Errorf("expected replaced price 105, got %v", entry.Price)
	}

	var count int64
	s.db.Model(&domain.CacheEntry{}).Count(&count)
	if count != 1 {
		t.Errorf("upsert should keep one row per symbol, got %d", count)
	}
}

func TestQuoteCache_InvalidateAll(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	s.Put(ctx, testQuote("AAPL", 100), time.Now())
	s.Put(ctx, testQuote("MSFT", 400), time.Now())
	s.PutSnapshot(ctx, domain.SnapshotKeyMarketData, []byte(`{}`), time.Now())

	if err := s.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}

	for _, sym := range []string{"AAPL", "MSFT"} {
		entry, err := s.Get(ctx, sym)
		if err != nil || entry != nil {
			t.Errorf("expected %s cleared, got entry=%v err=%v", sym, entry, err)
		}
	}

	snap, err := s.GetSnapshot(ctx, domain.SnapshotKeyMarketData)
	if err != nil || snap != nil {
		t.Errorf("expected market snapshot cleared, got %v err=%v", snap, err)
	}
}

func TestSnapshotCache(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	storedAt := time.Now().UTC()

	if err := s.PutSnapshot(ctx, domain.SnapshotKeyMarketData, []byte(`{"indexes":[]}`), storedAt); err != nil {
		t.Fatalf("PutSnapshot failed: %v", err)
	}

	snap, err := s.GetSnapshot(ctx, domain.SnapshotKeyMarketData)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if snap == nil || string(snap.Payload) != `{"indexes":[]}` {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Overwrite under the same key
	s.PutSnapshot(ctx, domain.SnapshotKeyMarketData, []byte(`{"v":2}`), storedAt.Add(time.Minute))
	snap, _ = s.GetSnapshot(ctx, domain.SnapshotKeyMarketData)
	if string(snap.Payload) != `{"v":2}` {
		t.Errorf("expected overwritten payload, got %s", snap.Payload)
	}

	if err := s.DeleteSnapshot(ctx, domain.SnapshotKeyMarketData); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	snap, _ = s.GetSnapshot(ctx, domain.SnapshotKeyMarketData)
	if snap != nil {
		t.Error("expected snapshot deleted")
	}
}

func TestHoldings_SaveAndList(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	acquired := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	h, err := domain.NewHolding("AAPL", decimal.NewFromInt(10), decimal.NewFromInt(150), acquired)
	if err != nil {
		t.Fatalf("NewHolding failed: %v", err)
	}
	if err := s.SaveHolding(ctx, h); err != nil {
		t.Fatalf("SaveHolding failed: %v", err)
	}

	// Updating the same symbol must not create a second row.
	h.Shares = decimal.NewFromInt(15)
	if err := s.SaveHolding(ctx, h); err != nil {
		t.Fatalf("SaveHolding update failed: %v", err)
	}

	holdings, err := s.ListHoldings(ctx)
	if err != nil {
		t.Fatalf("ListHoldings failed: %v", err)
	}
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	if !holdings[0].Shares.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected 15 shares, got %v", holdings[0].Shares)
	}
}

func TestHoldings_RecordLastKnownPrice(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	h, _ := domain.NewHolding("MSFT", decimal.NewFromInt(5), decimal.NewFromInt(300), time.Now())
	s.SaveHolding(ctx, h)

	if err := s.RecordLastKnownPrice(ctx, "MSFT", decimal.NewFromFloat(415.5)); err != nil {
		t.Fatalf("RecordLastKnownPrice failed: %v", err)
	}

	holdings, _ := s.ListHoldings(ctx)
	if !holdings[0].LastKnownPrice.Equal(decimal.NewFromFloat(415.5)) {
		t.Errorf("expected last known price 415.5, got %v", holdings[0].LastKnownPrice)
	}
}

func TestHoldings_Delete(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	h, _ := domain.NewHolding("DEL", decimal.NewFromInt(1), decimal.NewFromInt(1), time.Now())
	s.SaveHolding(ctx, h)

	if err := s.DeleteHolding(ctx, "DEL"); err != nil {
		t.Fatalf("DeleteHolding failed: %v", err)
	}

	holdings, _ := s.ListHoldings(ctx)
	if len(holdings) != 0 {
		t.Errorf("expected no holdings, got %d", len(holdings))
	}
}
