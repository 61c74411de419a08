package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteProvider defines the interface for external market-data
// sources. Implementations are stateless: they never touch the cache.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
}

// QuoteCache defines the persisted per-symbol quote store. Get returns
// (nil, nil) on a miss; freshness is the caller's decision via
// CacheEntry.FreshWithin since TTL is never hard-coded in the cache.
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (*CacheEntry, error)
	Put(ctx context.Context, quote *Quote, storedAt time.Time) error
	InvalidateAll(ctx context.Context) error
}

// SnapshotCache is the larger-granularity cache keyed by a well-known
// name instead of per-symbol keys.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, key string) (*SnapshotEntry, error)
	PutSnapshot(ctx context.Context, key string, payload []byte, storedAt time.Time) error
	DeleteSnapshot(ctx context.Context, key string) error
}

// HoldingStore persists positions and the last-known price recorded on
// them. Which user the holdings belong to is resolved by the caller.
type HoldingStore interface {
	ListHoldings(ctx context.Context) ([]*Holding, error)
	SaveHolding(ctx context.Context, h *Holding) error
	RecordLastKnownPrice(ctx context.Context, symbol string, price decimal.Decimal) error
}
