package market

import (
	"context"
	"time"
)

// Store persists quote snapshots, historical series and news so reads can be served
// without a provider round trip. Lookups of absent data return ErrNotFound; failures
// to reach the backing store wrap ErrStoreUnavailable.
type Store interface {
	// LoadQuote returns the stored snapshot for symbol.
	LoadQuote(ctx context.Context, symbol string) (*Quote, error)
	// SaveQuote upserts the snapshot keyed by its symbol.
	SaveQuote(ctx context.Context, quote *Quote) error
	// LoadHistory returns the stored series for (symbol, period).
	LoadHistory(ctx context.Context, symbol string, period Period) (*HistorySeries, error)
	// SaveHistory upserts the series keyed by (symbol, period).
	SaveHistory(ctx context.Context, series *HistorySeries) error
	// LoadNews returns up to limit stored articles for symbol, newest first.
	LoadNews(ctx context.Context, symbol string, limit int) ([]NewsItem, error)
	// SaveNews upserts articles for symbol keyed by article id.
	SaveNews(ctx context.Context, symbol string, items []NewsItem) error
	// NewsFetchedAt reports when news for symbol was last stored.
	NewsFetchedAt(ctx context.Context, symbol string) (time.Time, error)
}
