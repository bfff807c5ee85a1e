package freshness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"
	"github.com/zeromicro/go-zero/core/threading"

	"stocklens-api/pkg/market"
	"stocklens-api/pkg/market/mock"
)

// News is a page of articles for one symbol along with where it came from.
type News struct {
	Symbol    string
	Items     []market.NewsItem
	FetchedAt time.Time
	Origin    market.Origin
}

// Resolver serves market data from the store, a provider or the mock generator
// according to its Policy.
type Resolver struct {
	store    market.Store
	provider market.Provider
	mock     *mock.Generator
	policy   Policy
	now      func() time.Time

	flight syncx.SingleFlight

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
	wg       sync.WaitGroup
	base     context.Context
	cancel   context.CancelFunc
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(policy Policy) Option {
	return func(r *Resolver) {
		r.policy = policy
	}
}

// WithClock overrides the time source used for age checks.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithMockGenerator sets the generator used for fallback data.
func WithMockGenerator(gen *mock.Generator) Option {
	return func(r *Resolver) {
		if gen != nil {
			r.mock = gen
		}
	}
}

// NewResolver wires a resolver over store and provider.
func NewResolver(store market.Store, provider market.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		provider: provider,
		policy:   DefaultPolicy(),
		now:      time.Now,
		flight:   syncx.NewSingleFlight(),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.mock == nil {
		r.mock = mock.NewFromTime(mock.WithClock(r.now))
	}
	if r.policy.NewsFetchSize <= 0 {
		r.policy.NewsFetchSize = DefaultNewsFetchSize
	}
	if r.policy.RefreshTimeout <= 0 {
		r.policy.RefreshTimeout = DefaultRefreshTimeout
	}
	r.base, r.cancel = context.WithCancel(context.Background())
	return r
}

// Policy returns the active policy.
func (r *Resolver) Policy() Policy {
	return r.policy
}

func quoteKey(sym string) string {
	return "quote:" + sym
}

func historyKey(sym string, period market.Period) string {
	return "history:" + sym + ":" + string(period)
}

func newsKey(sym string) string {
	return "news:" + sym
}

// collapse runs fn once per key among concurrent callers. The shared call keeps
// ctx values but not its cancellation and is bounded by RefreshTimeout, so one
// caller going away does not fail the others. A cancelled caller stops waiting.
func collapse[T any](ctx context.Context, r *Resolver, key string, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   any
		err error
	}
	parent := context.WithoutCancel(ctx)
	done := make(chan result, 1)
	threading.GoSafe(func() {
		v, err := r.flight.Do(key, func() (any, error) {
			ctx, cancel := context.WithTimeout(parent, r.policy.RefreshTimeout)
			defer cancel()
			stop := context.AfterFunc(r.base, cancel)
			defer stop()
			return fn(ctx)
		})
		done <- result{v: v, err: err}
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-done:
		out, _ := res.v.(T)
		return out, res.err
	}
}

// Quote serves the snapshot for symbol. With mock fallback enabled it only fails on
// invalid input or a cancelled context.
func (r *Resolver) Quote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.LoadQuote(ctx, sym)
	switch {
	case err == nil:
		out := stored.Clone()
		if r.policy.Fresh(KindQuote, stored.FetchedAt, r.now()) {
			out.Origin = market.OriginCache
			return out, nil
		}
		r.scheduleQuote(ctx, sym)
		out.Origin = market.OriginStale
		return out, nil
	case !errors.Is(err, market.ErrNotFound):
		logx.WithContext(ctx).Errorf("freshness: load quote symbol=%s, treating as absent: %v", sym, err)
	}

	q, err := collapse(ctx, r, quoteKey(sym), func(ctx context.Context) (*market.Quote, error) {
		return r.fetchQuote(ctx, sym)
	})
	if q != nil {
		if err != nil {
			logx.WithContext(ctx).Errorf("freshness: persist quote symbol=%s: %v", sym, err)
		}
		out := q.Clone()
		out.Origin = market.OriginLive
		return out, nil
	}
	if err = r.fallbackAllowed(ctx, "quote", sym, err); err != nil {
		return nil, err
	}
	return r.mock.Quote(sym), nil
}

// FetchQuote fetches symbol from the provider and persists it, surfacing every failure.
func (r *Resolver) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	q, err := r.fetchQuote(ctx, sym)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *Resolver) fetchQuote(ctx context.Context, sym string) (*market.Quote, error) {
	q, err := r.provider.FetchQuote(ctx, sym)
	if err != nil {
		return nil, err
	}
	if q.FetchedAt.IsZero() {
		q.FetchedAt = r.now().UTC()
	}
	q.Origin = market.OriginLive
	return q, r.store.SaveQuote(ctx, q)
}

func (r *Resolver) scheduleQuote(ctx context.Context, sym string) bool {
	return r.schedule(ctx, quoteKey(sym), func(ctx context.Context) error {
		_, err := r.fetchQuote(ctx, sym)
		return err
	})
}

// History serves the series for (symbol, period) under the same rules as Quote.
func (r *Resolver) History(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period, err = market.ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	stored, err := r.store.LoadHistory(ctx, sym, period)
	switch {
	case err == nil && len(stored.Points) > 0:
		out := stored.Clone()
		if r.policy.Fresh(KindHistory, stored.FetchedAt, r.now()) {
			out.Origin = market.OriginCache
			return out, nil
		}
		r.scheduleHistory(ctx, sym, period)
		out.Origin = market.OriginStale
		return out, nil
	case err != nil && !errors.Is(err, market.ErrNotFound):
		logx.WithContext(ctx).Errorf("freshness: load history symbol=%s period=%s, treating as absent: %v", sym, period, err)
	}

	s, err := collapse(ctx, r, historyKey(sym, period), func(ctx context.Context) (*market.HistorySeries, error) {
		return r.fetchHistory(ctx, sym, period)
	})
	if s != nil {
		if err != nil {
			logx.WithContext(ctx).Errorf("freshness: persist history symbol=%s period=%s: %v", sym, period, err)
		}
		out := s.Clone()
		out.Origin = market.OriginLive
		return out, nil
	}
	if err = r.fallbackAllowed(ctx, "history", sym, err); err != nil {
		return nil, err
	}
	return r.mock.History(sym, period, mock.TrendFor(sym)), nil
}

// FetchHistory fetches the series from the provider and persists it, surfacing every failure.
func (r *Resolver) FetchHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period, err = market.ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	s, err := r.fetchHistory(ctx, sym, period)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Resolver) fetchHistory(ctx context.Context, sym string, period market.Period) (*market.HistorySeries, error) {
	s, err := r.provider.FetchHistory(ctx, sym, period)
	if err != nil {
		return nil, err
	}
	s.Symbol, s.Period = sym, period
	s.SortPoints()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.FetchedAt.IsZero() {
		s.FetchedAt = r.now().UTC()
	}
	s.Origin = market.OriginLive
	return s, r.store.SaveHistory(ctx, s)
}

func (r *Resolver) scheduleHistory(ctx context.Context, sym string, period market.Period) bool {
	return r.schedule(ctx, historyKey(sym, period), func(ctx context.Context) error {
		_, err := r.fetchHistory(ctx, sym, period)
		return err
	})
}

// News serves up to limit articles for symbol, newest first. A non-positive limit
// returns every stored article.
func (r *Resolver) News(ctx context.Context, symbol string, limit int) (*News, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	fetchedAt, err := r.store.NewsFetchedAt(ctx, sym)
	if err == nil {
		var items []market.NewsItem
		if items, err = r.store.LoadNews(ctx, sym, limit); err == nil {
			page := &News{Symbol: sym, Items: items, FetchedAt: fetchedAt, Origin: market.OriginCache}
			if !r.policy.Fresh(KindNews, fetchedAt, r.now()) {
				r.scheduleNews(ctx, sym)
				page.Origin = market.OriginStale
			}
			return page, nil
		}
	}
	if !errors.Is(err, market.ErrNotFound) {
		logx.WithContext(ctx).Errorf("freshness: load news symbol=%s, treating as absent: %v", sym, err)
	}

	page, err := collapse(ctx, r, newsKey(sym), func(ctx context.Context) (*News, error) {
		return r.fetchNews(ctx, sym)
	})
	if page != nil {
		if err != nil {
			logx.WithContext(ctx).Errorf("freshness: persist news symbol=%s: %v", sym, err)
		}
		items := market.CloneNews(page.Items)
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		return &News{Symbol: sym, Items: items, FetchedAt: page.FetchedAt, Origin: market.OriginLive}, nil
	}
	if err = r.fallbackAllowed(ctx, "news", sym, err); err != nil {
		return nil, err
	}
	count := limit
	if count <= 0 {
		count = r.policy.NewsFetchSize
	}
	return &News{Symbol: sym, Items: r.mock.News(sym, count), FetchedAt: r.now().UTC(), Origin: market.OriginMock}, nil
}

func (r *Resolver) fetchNews(ctx context.Context, sym string) (*News, error) {
	items, err := r.provider.FetchNews(ctx, sym, r.policy.NewsFetchSize)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	for i := range items {
		items[i].Symbol = sym
		if items[i].FetchedAt.IsZero() {
			items[i].FetchedAt = now
		}
	}
	market.SortNewsByDate(items)
	return &News{Symbol: sym, Items: items, FetchedAt: now, Origin: market.OriginLive}, r.store.SaveNews(ctx, sym, items)
}

func (r *Resolver) scheduleNews(ctx context.Context, sym string) bool {
	return r.schedule(ctx, newsKey(sym), func(ctx context.Context) error {
		_, err := r.fetchNews(ctx, sym)
		return err
	})
}

// fallbackAllowed returns nil when mock data may replace a failed fetch, and
// otherwise the error to report.
func (r *Resolver) fallbackAllowed(ctx context.Context, kind, sym string, cause error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(cause, market.ErrInvalidSymbol) || errors.Is(cause, market.ErrInvalidPeriod) {
		return cause
	}
	if !r.policy.MockFallback {
		if errors.Is(cause, market.ErrNotFound) {
			return cause
		}
		return fmt.Errorf("freshness: %s %s: %w", kind, sym, errors.Join(market.ErrNotFound, cause))
	}
	logx.WithContext(ctx).Errorf("freshness: live %s symbol=%s failed, serving mock: %v", kind, sym, cause)
	return nil
}

// Refresh schedules a background refresh of one entry regardless of its age.
// It reports false when a refresh for the same entry is already running or the
// resolver is closed.
func (r *Resolver) Refresh(ctx context.Context, kind Kind, symbol string, period market.Period) (bool, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return false, err
	}
	switch kind {
	case KindQuote:
		return r.scheduleQuote(ctx, sym), nil
	case KindHistory:
		if period, err = market.ParsePeriod(string(period)); err != nil {
			return false, err
		}
		return r.scheduleHistory(ctx, sym, period), nil
	case KindNews:
		return r.scheduleNews(ctx, sym), nil
	default:
		return false, fmt.Errorf("freshness: unknown kind %q", kind)
	}
}

// schedule starts refresh in the background unless one is already running for key.
// The refresh keeps ctx values but not its cancellation, is bounded by
// RefreshTimeout and stops when the resolver is closed.
func (r *Resolver) schedule(ctx context.Context, key string, refresh func(context.Context) error) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	if _, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		return false
	}
	r.inflight[key] = struct{}{}
	r.wg.Add(1)
	r.mu.Unlock()

	parent := context.WithoutCancel(ctx)
	threading.GoSafe(func() {
		defer r.wg.Done()
		defer r.release(key)

		ctx, cancel := context.WithTimeout(parent, r.policy.RefreshTimeout)
		defer cancel()
		stop := context.AfterFunc(r.base, cancel)
		defer stop()

		if err := refresh(ctx); err != nil {
			logx.WithContext(ctx).Errorf("freshness: background refresh %s: %v", key, err)
			return
		}
		logx.WithContext(ctx).Infof("freshness: refreshed %s", key)
	})
	return true
}

func (r *Resolver) release(key string) {
	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()
}

// InFlight reports how many background refreshes are running.
func (r *Resolver) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Wait blocks until every scheduled background refresh has finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close stops accepting refreshes, cancels running ones and waits for them.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}
