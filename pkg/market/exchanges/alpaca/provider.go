// Package alpaca implements market.Provider on top of the Alpaca market data SDK.
package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stocklens-api/pkg/market"
)

const defaultProviderTimeout = 10 * time.Second

// Provider reads snapshots, bars and news through marketdata.Client.
// Alpaca news carries no sentiment scores, so every article is neutral.
type Provider struct {
	client  *marketdata.Client
	name    string
	feed    string
	timeout time.Duration
	now     func() time.Time
}

var _ market.Provider = (*Provider)(nil)

// Options configures a Provider.
type Options struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	Feed       string
	Timeout    time.Duration
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewProvider constructs an Alpaca provider.
func NewProvider(name string, opts Options) *Provider {
	clientOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.BaseURL != "" {
		clientOpts.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		clientOpts.HTTPClient = opts.HTTPClient
	}
	p := &Provider{
		client:  marketdata.NewClient(clientOpts),
		name:    name,
		feed:    opts.Feed,
		timeout: defaultProviderTimeout,
		now:     time.Now,
	}
	if opts.Timeout > 0 {
		p.timeout = opts.Timeout
	}
	if opts.Now != nil {
		p.now = opts.Now
	}
	return p
}

func init() {
	market.RegisterProvider("alpaca", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		if err := cfg.RequireAPIKey(name); err != nil {
			return nil, err
		}
		if cfg.APISecret == "" {
			return nil, fmt.Errorf("market provider %s: %w: api_secret is required", name, market.ErrConfiguration)
		}
		opts := Options{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.BaseURL,
			Feed:      cfg.Feed,
			Timeout:   cfg.Timeout,
		}
		if cfg.HTTPTimeout > 0 {
			opts.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
		}
		return NewProvider(name, opts), nil
	})
}

// call runs fn off the caller goroutine so ctx cancellation is honoured;
// the SDK calls themselves take no context.
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{val: v, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.val, r.err
	}
}

// FetchQuote uses the daily bar of the latest snapshot.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	snap, err := call(ctx, p.timeout, func() (*marketdata.Snapshot, error) {
		return p.client.GetSnapshot(sym, marketdata.GetSnapshotRequest{Feed: p.feed})
	})
	if err != nil {
		return nil, market.UpstreamError("alpaca", err)
	}
	if snap == nil || snap.DailyBar == nil {
		return nil, fmt.Errorf("alpaca: no daily bar for %s: %w", sym, market.ErrNotFound)
	}
	bar := snap.DailyBar
	q := market.NewQuote(sym, "", market.QuoteBar{
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: float64(bar.Volume),
	})
	q.FetchedAt = p.now().UTC()
	q.Provider = p.name
	return q, nil
}

func timeFrame(g market.Granularity) marketdata.TimeFrame {
	switch g.Unit {
	case market.UnitMinute:
		return marketdata.NewTimeFrame(g.Multiplier, marketdata.Min)
	case market.UnitHour:
		return marketdata.NewTimeFrame(g.Multiplier, marketdata.Hour)
	case market.UnitWeek:
		return marketdata.NewTimeFrame(g.Multiplier, marketdata.Week)
	default:
		return marketdata.NewTimeFrame(g.Multiplier, marketdata.Day)
	}
}

// FetchHistory reads bars at the period granularity.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	req := marketdata.GetBarsRequest{
		TimeFrame:  timeFrame(period.Granularity()),
		Adjustment: marketdata.Split,
		Start:      now.Add(-period.Span()),
		End:        now,
		Feed:       p.feed,
	}
	bars, err := call(ctx, p.timeout, func() ([]marketdata.Bar, error) {
		return p.client.GetBars(sym, req)
	})
	if err != nil {
		return nil, market.UpstreamError("alpaca", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpaca: no bars for %s/%s: %w", sym, period, market.ErrNotFound)
	}
	series := &market.HistorySeries{
		Symbol:    sym,
		Period:    period,
		Points:    make([]market.HistoryPoint, 0, len(bars)),
		FetchedAt: now,
		Provider:  p.name,
	}
	for _, b := range bars {
		series.Points = append(series.Points, market.HistoryPoint{Date: b.Timestamp.UTC(), Close: b.Close})
	}
	series.SortPoints()
	return series, nil
}

// FetchNews reads the most recent articles tagged with symbol.
func (p *Provider) FetchNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	now := p.now().UTC()
	news, err := call(ctx, p.timeout, func() ([]marketdata.News, error) {
		return p.client.GetNews(marketdata.GetNewsRequest{
			Symbols:    []string{sym},
			Start:      now.Add(-7 * 24 * time.Hour),
			End:        now,
			TotalLimit: limit,
			Sort:       marketdata.SortDesc,
		})
	})
	if err != nil {
		return nil, market.UpstreamError("alpaca", err)
	}
	items := make([]market.NewsItem, 0, len(news))
	for _, n := range news {
		source := strings.TrimSpace(n.Source)
		if source == "" {
			source = "alpaca"
		}
		items = append(items, market.NewsItem{
			ID:        "alpaca-" + strconv.Itoa(n.ID),
			Symbol:    sym,
			Title:     n.Headline,
			Source:    source,
			Date:      n.CreatedAt.UTC(),
			Snippet:   n.Summary,
			URL:       n.URL,
			Sentiment: market.SentimentNeutral,
			FetchedAt: now,
		})
	}
	market.SortNewsByDate(items)
	return items, nil
}
