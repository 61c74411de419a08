package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewHolding(t *testing.T) {
	acquired := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)

	t.Run("valid holding", func(t *testing.T) {
		h, err := NewHolding("aapl", decimal.NewFromInt(10), decimal.NewFromInt(100), acquired)
		if err != nil {
			t.Fatalf("NewHolding failed: %v", err)
		}
		if h.Symbol != "AAPL" {
			t.Errorf("symbol should be upper-cased, got %s", h.Symbol)
		}
		if !h.CostBasisTotal().Equal(decimal.NewFromInt(1000)) {
			t.Errorf("CostBasisTotal = %v, want 1000", h.CostBasisTotal())
		}
	})

	t.Run("zero shares allowed", func(t *testing.T) {
		if _, err := NewHolding("MSFT", decimal.Zero, decimal.Zero, acquired); err != nil {
			t.Errorf("zero shares should be valid: %v", err)
		}
	})

	t.Run("negative shares rejected", func(t *testing.T) {
		_, err := NewHolding("AAPL", decimal.NewFromInt(-1), decimal.NewFromInt(100), acquired)
		if !errors.Is(err, ErrInvalidHolding) {
			t.Errorf("expected ErrInvalidHolding, got %v", err)
		}
	})

	t.Run("negative cost basis rejected", func(t *testing.T) {
		_, err := NewHolding("AAPL", decimal.NewFromInt(1), decimal.NewFromInt(-5), acquired)
		if !errors.Is(err, ErrInvalidHolding) {
			t.Errorf("expected ErrInvalidHolding, got %v", err)
		}
	})

	t.Run("empty symbol rejected", func(t *testing.T) {
		_, err := NewHolding("  ", decimal.NewFromInt(1), decimal.NewFromInt(5), acquired)
		if !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("expected ErrInvalidSymbol, got %v", err)
		}
	})
}

func TestCacheEntry_FreshWithin(t *testing.T) {
	ttl := time.Hour
	t0 := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	entry := &CacheEntry{Symbol: "AAPL", StoredAt: t0}

	t.Run("fresh just inside the window", func(t *testing.T) {
		if !entry.FreshWithin(ttl, t0.Add(ttl-time.Second)) {
			t.Error("entry should be fresh at t0 + ttl - 1s")
		}
	})

	t.Run("stale just past the window", func(t *testing.T) {
		if entry.FreshWithin(ttl, t0.Add(ttl+time.Second)) {
			t.Error("entry should be stale at t0 + ttl + 1s")
		}
	})

	t.Run("stale exactly at the boundary", func(t *testing.T) {
		if entry.FreshWithin(ttl, t0.Add(ttl)) {
			t.Error("now - storedAt == ttl is not strictly inside the window")
		}
	})

	t.Run("nil entry is never fresh", func(t *testing.T) {
		var missing *CacheEntry
		if missing.FreshWithin(ttl, t0) {
			t.Error("nil entry should never be fresh")
		}
	})
}

func TestCacheEntry_RoundTrip(t *testing.T) {
	now := time.Now()
	q := &Quote{
		Symbol: "GOOG",
		Price:  decimal.NewFromFloat(172.45),
		Open:   decimal.NewFromFloat(170.01),
		High:   decimal.NewFromFloat(173.2),
		Low:    decimal.NewFromFloat(169.9),
		Volume: 1_234_567,
		AsOf:   now,
	}

	got := NewCacheEntry(q, now).Quote()
	if got.Symbol != q.Symbol || !got.Price.Equal(q.Price) || got.Volume != q.Volume {
		t.Errorf("round-tripped quote mismatch: %+v", got)
	}
	if !got.High.Equal(q.High) || !got.Low.Equal(q.Low) || !got.Open.Equal(q.Open) {
		t.Errorf("round-tripped OHL mismatch: %+v", got)
	}
}
