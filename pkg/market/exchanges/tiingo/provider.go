// Package tiingo serves end-of-day data from Tiingo through markcheno/go-quote.
// Tiingo's daily endpoint has no intraday bars or news, so 1d/1w history and
// FetchNews report market.ErrUnsupported.
package tiingo

import (
	"context"
	"fmt"
	"time"

	quote "github.com/markcheno/go-quote"

	"stocklens-api/pkg/market"
)

const (
	defaultProviderTimeout = 15 * time.Second
	// quoteLookback covers weekends and market holidays when looking for the latest bar.
	quoteLookback = 7 * 24 * time.Hour
)

// FetchFunc matches quote.NewQuoteFromTiingo.
type FetchFunc func(symbol, startDate, endDate string, period quote.Period, token string) (quote.Quote, error)

// Provider adapts go-quote Tiingo downloads to market.Provider.
type Provider struct {
	name    string
	token   string
	timeout time.Duration
	fetch   FetchFunc
	now     func() time.Time
}

var _ market.Provider = (*Provider)(nil)

// ProviderOption customises the Tiingo provider.
type ProviderOption func(*Provider)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithFetchFunc replaces the download function.
func WithFetchFunc(fn FetchFunc) ProviderOption {
	return func(p *Provider) {
		if fn != nil {
			p.fetch = fn
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProvider constructs a Tiingo provider authenticated with token.
func NewProvider(name, token string, opts ...ProviderOption) *Provider {
	p := &Provider{
		name:    name,
		token:   token,
		timeout: defaultProviderTimeout,
		fetch:   quote.NewQuoteFromTiingo,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func init() {
	market.RegisterProvider("tiingo", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		if err := cfg.RequireAPIKey(name); err != nil {
			return nil, err
		}
		return NewProvider(name, cfg.APIKey, WithTimeout(cfg.Timeout)), nil
	})
}

// download runs the blocking go-quote call under the provider timeout.
func (p *Provider) download(ctx context.Context, sym string, from, to time.Time, period quote.Period) (quote.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		q   quote.Quote
		err error
	}
	done := make(chan result, 1)
	go func() {
		q, err := p.fetch(sym, from.Format(time.DateOnly), to.Format(time.DateOnly), period, p.token)
		done <- result{q: q, err: err}
	}()
	select {
	case <-ctx.Done():
		return quote.Quote{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return quote.Quote{}, market.UpstreamError("tiingo", r.err)
		}
		// go-quote returns an empty quote without error for unknown symbols
		if len(r.q.Close) == 0 {
			return quote.Quote{}, fmt.Errorf("tiingo: no prices for %s: %w", sym, market.ErrNotFound)
		}
		return r.q, nil
	}
}

// FetchQuote uses the most recent daily bar.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	q, err := p.download(ctx, sym, now.Add(-quoteLookback), now, quote.Daily)
	if err != nil {
		return nil, err
	}
	i := len(q.Close) - 1
	out := market.NewQuote(sym, "", market.QuoteBar{
		Open:   q.Open[i],
		High:   q.High[i],
		Low:    q.Low[i],
		Close:  q.Close[i],
		Volume: q.Volume[i],
	})
	out.FetchedAt = now
	out.Provider = p.name
	return out, nil
}

// FetchHistory downloads daily bars, resampled weekly for five years.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period.Intraday() {
		return nil, fmt.Errorf("tiingo: %s history: %w", period, market.ErrUnsupported)
	}
	resolution := quote.Daily
	if period.Granularity().Unit == market.UnitWeek {
		resolution = quote.Weekly
	}
	now := p.now().UTC()
	q, err := p.download(ctx, sym, now.Add(-period.Span()), now, resolution)
	if err != nil {
		return nil, err
	}
	series := &market.HistorySeries{
		Symbol:    sym,
		Period:    period,
		Points:    make([]market.HistoryPoint, 0, len(q.Close)),
		FetchedAt: now,
		Provider:  p.name,
	}
	for i := range q.Close {
		series.Points = append(series.Points, market.HistoryPoint{Date: q.Date[i].UTC(), Close: q.Close[i]})
	}
	series.SortPoints()
	return series, nil
}

// FetchNews is not offered by the daily endpoint.
func (p *Provider) FetchNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	return nil, fmt.Errorf("tiingo: news: %w", market.ErrUnsupported)
}
