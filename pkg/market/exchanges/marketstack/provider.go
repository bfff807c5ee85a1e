// Package marketstack implements quotes and history against the MarketStack API.
// MarketStack has no news feed; FetchNews reports market.ErrUnsupported.
package marketstack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/pkg/market"
	"stocklens-api/pkg/market/exchanges/restclient"
)

const (
	defaultBaseURL         = "https://api.marketstack.com"
	defaultProviderTimeout = 10 * time.Second
	timestampLayout        = "2006-01-02T15:04:05-0700"
	pageLimit              = "1000"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type eodResponse struct {
	Data  []eodBar  `json:"data"`
	Error *apiError `json:"error"`
}

type eodBar struct {
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Last   *float64 `json:"last"`
	Volume float64  `json:"volume"`
	Symbol string   `json:"symbol"`
	Date   string   `json:"date"`
}

// price prefers the intraday last trade when present.
func (b eodBar) price() float64 {
	if b.Last != nil && *b.Last > 0 {
		return *b.Last
	}
	return b.Close
}

type tickerResponse struct {
	Name   string    `json:"name"`
	Symbol string    `json:"symbol"`
	Error  *apiError `json:"error"`
}

// Provider fetches end-of-day and intraday bars.
type Provider struct {
	client  *restclient.Client
	name    string
	timeout time.Duration
	now     func() time.Time
}

var _ market.Provider = (*Provider)(nil)

type providerConfig struct {
	timeout       time.Duration
	now           func() time.Time
	clientOptions []restclient.Option
}

// ProviderOption customises the MarketStack provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProviderOption {
	return func(cfg *providerConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithClientOptions passes options to the underlying REST client.
func WithClientOptions(options ...restclient.Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientOptions = append(cfg.clientOptions, options...)
	}
}

// NewProvider constructs a MarketStack provider.
func NewProvider(name, accessKey string, opts ...ProviderOption) *Provider {
	cfg := &providerConfig{timeout: defaultProviderTimeout, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	clientOptions := append([]restclient.Option{restclient.WithQueryAuth("access_key", accessKey)}, cfg.clientOptions...)
	return &Provider{
		client:  restclient.New("marketstack", defaultBaseURL, clientOptions...),
		name:    name,
		timeout: cfg.timeout,
		now:     cfg.now,
	}
}

func init() {
	market.RegisterProvider("marketstack", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		if err := cfg.RequireAPIKey(name); err != nil {
			return nil, err
		}
		opts := []ProviderOption{}
		clientOptions := []restclient.Option{}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.HTTPTimeout > 0 {
			clientOptions = append(clientOptions, restclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if cfg.BaseURL != "" {
			clientOptions = append(clientOptions, restclient.WithBaseURL(cfg.BaseURL))
		}
		if cfg.MaxRetries > 0 {
			clientOptions = append(clientOptions, restclient.WithMaxRetries(cfg.MaxRetries))
		}
		if len(clientOptions) > 0 {
			opts = append(opts, WithClientOptions(clientOptions...))
		}
		return NewProvider(name, cfg.APIKey, opts...), nil
	})
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Provider) getBars(ctx context.Context, path string, query url.Values) ([]eodBar, error) {
	var resp eodResponse
	if err := p.client.GetJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, market.UpstreamError("marketstack", fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message))
	}
	return resp.Data, nil
}

// FetchQuote reads the latest end-of-day bar and the ticker name.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	bars, err := p.getBars(ctx, "/v1/eod/latest", url.Values{"symbols": {sym}})
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("marketstack: no eod bar for %s: %w", sym, market.ErrNotFound)
	}
	bar := bars[0]

	var ticker tickerResponse
	if err := p.client.GetJSON(ctx, "/v1/tickers/"+url.PathEscape(sym), nil, &ticker); err != nil {
		logx.WithContext(ctx).Infof("marketstack: ticker symbol=%s unavailable: %v", sym, err)
	}
	q := market.NewQuote(sym, ticker.Name, market.QuoteBar{
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.price(),
		Volume: bar.Volume,
	})
	q.FetchedAt = p.now().UTC()
	q.Provider = p.name
	return q, nil
}

// FetchHistory reads intraday bars for 1d/1w and end-of-day bars otherwise.
// Five-year series keep the last close of each ISO week.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	now := p.now().UTC()
	from := now.Add(-period.Span())
	query := url.Values{
		"symbols":   {sym},
		"date_from": {from.Format(time.DateOnly)},
		"date_to":   {now.Format(time.DateOnly)},
		"limit":     {pageLimit},
		"sort":      {"ASC"},
	}
	path := "/v1/eod"
	switch period {
	case market.Period1D:
		path = "/v1/intraday"
		query.Set("interval", "5min")
	case market.Period1W:
		path = "/v1/intraday"
		query.Set("interval", "1hour")
	}
	bars, err := p.getBars(ctx, path, query)
	if err != nil {
		return nil, err
	}

	series := &market.HistorySeries{Symbol: sym, Period: period, FetchedAt: now, Provider: p.name}
	for _, bar := range bars {
		ts, err := time.Parse(timestampLayout, bar.Date)
		if err != nil {
			continue
		}
		series.Points = append(series.Points, market.HistoryPoint{Date: ts.UTC(), Close: bar.price()})
	}
	if len(series.Points) == 0 {
		return nil, fmt.Errorf("marketstack: no bars for %s/%s: %w", sym, period, market.ErrNotFound)
	}
	series.SortPoints()
	if period == market.Period5Y {
		series.Points = lastPerWeek(series.Points)
	}
	return series, nil
}

func lastPerWeek(points []market.HistoryPoint) []market.HistoryPoint {
	out := make([]market.HistoryPoint, 0, len(points)/5+1)
	for _, pt := range points {
		y, w := pt.Date.ISOWeek()
		if n := len(out); n > 0 {
			py, pw := out[n-1].Date.ISOWeek()
			if py == y && pw == w {
				out[n-1] = pt
				continue
			}
		}
		out = append(out, pt)
	}
	return out
}

// FetchNews is not offered by MarketStack.
func (p *Provider) FetchNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	return nil, fmt.Errorf("marketstack: news: %w", market.ErrUnsupported)
}
