// Package memory provides an in-process market.Store used when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stocklens-api/pkg/market"
)

type historyKey struct {
	symbol string
	period market.Period
}

// newsKey scopes an article to one symbol; providers reuse ids across tickers.
type newsKey struct {
	symbol string
	id     string
}

// Store keeps quotes, series and news in maps guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	quotes  map[string]*market.Quote
	history map[historyKey]*market.HistorySeries
	news    map[newsKey]market.NewsItem
	newsAt  map[string]time.Time
	failure error
	now     func() time.Time
}

var _ market.Store = (*Store)(nil)

// Option customises the store.
type Option func(*Store)

// WithClock overrides the time used to stamp saves without FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		quotes:  make(map[string]*market.Quote),
		history: make(map[historyKey]*market.HistorySeries),
		news:    make(map[newsKey]market.NewsItem),
		newsAt:  make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFailure makes every operation fail with ErrStoreUnavailable wrapping err.
// A nil err restores normal behaviour.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) check(op string) error {
	if s.failure != nil {
		return market.StoreError("memory "+op, s.failure)
	}
	return nil
}

func (s *Store) LoadQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("load quote"); err != nil {
		return nil, err
	}
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", symbol, market.ErrNotFound)
	}
	return q.Clone(), nil
}

func (s *Store) SaveQuote(ctx context.Context, quote *market.Quote) error {
	if quote == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("save quote"); err != nil {
		return err
	}
	c := quote.Clone()
	c.Origin = ""
	if c.FetchedAt.IsZero() {
		c.FetchedAt = s.now().UTC()
	}
	s.quotes[c.Symbol] = c
	return nil
}

func (s *Store) LoadHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("load history"); err != nil {
		return nil, err
	}
	series, ok := s.history[historyKey{symbol, period}]
	if !ok {
		return nil, fmt.Errorf("history %s/%s: %w", symbol, period, market.ErrNotFound)
	}
	return series.Clone(), nil
}

func (s *Store) SaveHistory(ctx context.Context, series *market.HistorySeries) error {
	if series == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("save history"); err != nil {
		return err
	}
	c := series.Clone()
	c.Origin = ""
	if c.FetchedAt.IsZero() {
		c.FetchedAt = s.now().UTC()
	}
	s.history[historyKey{c.Symbol, c.Period}] = c
	return nil
}

// LoadNews returns the newest limit articles for symbol. A non-positive limit returns all.
func (s *Store) LoadNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("load news"); err != nil {
		return nil, err
	}
	if _, ok := s.newsAt[symbol]; !ok {
		return nil, fmt.Errorf("news %s: %w", symbol, market.ErrNotFound)
	}
	var out []market.NewsItem
	for key, item := range s.news {
		if key.symbol == symbol {
			out = append(out, item)
		}
	}
	market.SortNewsByDate(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveNews(ctx context.Context, symbol string, items []market.NewsItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("save news"); err != nil {
		return err
	}
	now := s.now().UTC()
	var latest time.Time
	for _, item := range items {
		item.Symbol = symbol
		if item.FetchedAt.IsZero() {
			item.FetchedAt = now
		}
		if item.FetchedAt.After(latest) {
			latest = item.FetchedAt
		}
		item.Topics = append([]market.Topic(nil), item.Topics...)
		s.news[newsKey{symbol, item.ID}] = item
	}
	if latest.IsZero() {
		latest = now
	}
	s.newsAt[symbol] = latest
	return nil
}

func (s *Store) NewsFetchedAt(ctx context.Context, symbol string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("news fetched at"); err != nil {
		return time.Time{}, err
	}
	at, ok := s.newsAt[symbol]
	if !ok {
		return time.Time{}, fmt.Errorf("news %s: %w", symbol, market.ErrNotFound)
	}
	return at, nil
}
