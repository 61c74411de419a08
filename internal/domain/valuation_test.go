package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceSource_IsStale(t *testing.T) {
	fresh := []PriceSource{SourceCache, SourceLive}
	for _, s := range fresh {
		if s.IsStale() {
			t.Errorf("source %q should not be stale", s)
		}
	}

	degraded := []PriceSource{SourceStaleCache, SourceLastKnown, SourceCostBasis, SourceNone}
	for _, s := range degraded {
		if !s.IsStale() {
			t.Errorf("source %q should be stale", s)
		}
	}
}

func TestValuationSnapshot_Degraded(t *testing.T) {
	t.Run("all live", func(t *testing.T) {
		snap := &ValuationSnapshot{
			Holdings: []HoldingValuation{
				{Symbol: "AAPL", Source: SourceLive},
				{Symbol: "MSFT", Source: SourceCache},
			},
		}
		if snap.Degraded() {
			t.Error("snapshot with only live/cache sources should not be degraded")
		}
	})

	t.Run("one fallback", func(t *testing.T) {
		snap := &ValuationSnapshot{
			Holdings: []HoldingValuation{
				{Symbol: "AAPL", Source: SourceLive},
				{Symbol: "MSFT", Source: SourceCostBasis},
			},
		}
		if !snap.Degraded() {
			t.Error("snapshot with a cost-basis fallback should be degraded")
		}
	})
}

func TestQuote_HasPrice(t *testing.T) {
	if (&Quote{Symbol: "AAPL"}).HasPrice() {
		t.Error("zero price should not count as usable")
	}
	if (&Quote{Symbol: "AAPL", Price: decimal.NewFromInt(-1)}).HasPrice() {
		t.Error("negative price should not count as usable")
	}
	if !(&Quote{Symbol: "AAPL", Price: decimal.NewFromFloat(0.01)}).HasPrice() {
		t.Error("positive price should count as usable")
	}
	var missing *Quote
	if missing.HasPrice() {
		t.Error("nil quote should not count as usable")
	}
}
