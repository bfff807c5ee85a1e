// Package freshness decides whether stored market data can be served as is,
// served while a refresh runs in the background, or must be fetched live.
//
// Every kind of data follows one rule:
//
//	fresh   (age <= max age)  serve stored copy            origin cache
//	stale   (age >  max age)  serve stored copy, refresh   origin stale
//	absent                    fetch, persist, serve        origin live
//	fetch failed              synthesize (not persisted)   origin mock
//
// Store read failures count as absent. Without mock fallback a failed fetch
// surfaces market.ErrNotFound.
package freshness

import (
	"fmt"
	"time"
)

// Kind names a class of stored data.
type Kind string

const (
	KindQuote   Kind = "quote"
	KindHistory Kind = "history"
	KindNews    Kind = "news"
)

const (
	DefaultQuoteMaxAge    = 15 * time.Minute
	DefaultHistoryMaxAge  = 24 * time.Hour
	DefaultNewsMaxAge     = time.Hour
	DefaultRefreshTimeout = 10 * time.Second
	// DefaultNewsFetchSize is how many articles a live news fetch asks for,
	// independent of the page size requested by the caller.
	DefaultNewsFetchSize = 50
)

// Policy holds the maximum ages per kind and the fallback behaviour.
type Policy struct {
	QuoteMaxAge    time.Duration
	HistoryMaxAge  time.Duration
	NewsMaxAge     time.Duration
	RefreshTimeout time.Duration
	NewsFetchSize  int
	MockFallback   bool
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		QuoteMaxAge:    DefaultQuoteMaxAge,
		HistoryMaxAge:  DefaultHistoryMaxAge,
		NewsMaxAge:     DefaultNewsMaxAge,
		RefreshTimeout: DefaultRefreshTimeout,
		NewsFetchSize:  DefaultNewsFetchSize,
		MockFallback:   true,
	}
}

// Validate rejects non-positive ages.
func (p Policy) Validate() error {
	for name, d := range map[string]time.Duration{
		"quote max age":   p.QuoteMaxAge,
		"history max age": p.HistoryMaxAge,
		"news max age":    p.NewsMaxAge,
		"refresh timeout": p.RefreshTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("freshness: %s must be positive, got %s", name, d)
		}
	}
	if p.NewsFetchSize < 0 {
		return fmt.Errorf("freshness: news fetch size must not be negative")
	}
	return nil
}

// MaxAge returns the age limit for kind.
func (p Policy) MaxAge(kind Kind) time.Duration {
	switch kind {
	case KindQuote:
		return p.QuoteMaxAge
	case KindHistory:
		return p.HistoryMaxAge
	case KindNews:
		return p.NewsMaxAge
	default:
		return 0
	}
}

// Fresh reports whether data fetched at fetchedAt is still within the limit for kind.
func (p Policy) Fresh(kind Kind, fetchedAt, now time.Time) bool {
	if fetchedAt.IsZero() {
		return false
	}
	return now.Sub(fetchedAt) <= p.MaxAge(kind)
}
