package market

import "context"

// Provider exposes vendor-agnostic stock market data.
type Provider interface {
	// FetchQuote returns the latest quote snapshot for the specified symbol.
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
	// FetchHistory returns closing prices covering the requested period.
	FetchHistory(ctx context.Context, symbol string, period Period) (*HistorySeries, error)
	// FetchNews returns up to limit recent articles mentioning the symbol.
	FetchNews(ctx context.Context, symbol string, limit int) ([]NewsItem, error)
}

// Origin tells callers where a value was served from.
type Origin string

const (
	OriginLive  Origin = "live"  // fetched from a provider during this call
	OriginCache Origin = "cache" // stored copy within its max age
	OriginStale Origin = "stale" // stored copy past its max age, refresh scheduled
	OriginMock  Origin = "mock"  // synthetic data
)
