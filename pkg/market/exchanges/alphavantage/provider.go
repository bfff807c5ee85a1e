// Package alphavantage implements market.Provider against the Alpha Vantage query API.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/pkg/market"
	"stocklens-api/pkg/market/exchanges/restclient"
)

const (
	defaultBaseURL         = "https://www.alphavantage.co"
	defaultProviderTimeout = 10 * time.Second
	newsTimeLayout         = "20060102T150405"
)

// Provider fetches quotes, time series and scored news from Alpha Vantage.
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

// ProviderOption customises the Alpha Vantage provider.
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

// NewProvider constructs an Alpha Vantage provider.
func NewProvider(name, apiKey string, opts ...ProviderOption) *Provider {
	cfg := &providerConfig{timeout: defaultProviderTimeout, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	clientOptions := append([]restclient.Option{restclient.WithQueryAuth("apikey", apiKey)}, cfg.clientOptions...)
	return &Provider{
		client:  restclient.New("alphavantage", defaultBaseURL, clientOptions...),
		name:    name,
		timeout: cfg.timeout,
		now:     cfg.now,
	}
}

func init() {
	market.RegisterProvider("alphavantage", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
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

// query calls /query and returns the top-level object, rejecting throttling and error payloads.
func (p *Provider) query(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if err := p.client.GetJSON(ctx, "/query", params, &payload); err != nil {
		return nil, err
	}
	for _, key := range []string{"Error Message", "Note", "Information"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return nil, market.UpstreamError("alphavantage", fmt.Errorf("%s: %s", strings.ToLower(key), msg))
	}
	return payload, nil
}

// FetchQuote combines GLOBAL_QUOTE with a best-effort OVERVIEW lookup.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	payload, err := p.query(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {sym}})
	if err != nil {
		return nil, err
	}
	var gq globalQuote
	if raw, ok := payload["Global Quote"]; ok {
		if err := json.Unmarshal(raw, &gq); err != nil {
			return nil, market.UpstreamError("alphavantage", fmt.Errorf("decode global quote: %w", err))
		}
	}
	if gq.Symbol == "" || gq.Price == "" {
		return nil, fmt.Errorf("alphavantage: no quote for %s: %w", sym, market.ErrNotFound)
	}

	bar, err := parseBar(seriesBar{Open: gq.Open, High: gq.High, Low: gq.Low, Close: gq.Price, Volume: gq.Volume})
	if err != nil {
		return nil, market.UpstreamError("alphavantage", err)
	}
	ov := p.overview(ctx, sym)
	q := market.NewQuote(sym, ov.Name, bar)
	q.MarketCap = parseFloatOr(ov.MarketCapitalization, 0)
	q.PERatio = parseFloatOr(ov.PERatio, 0)
	// OVERVIEW reports the yield as a fraction
	q.DividendYield = market.Round2(parseFloatOr(ov.DividendYield, 0) * 100)
	q.FetchedAt = p.now().UTC()
	q.Provider = p.name
	return q, nil
}

func (p *Provider) overview(ctx context.Context, sym string) overview {
	var ov overview
	payload, err := p.query(ctx, url.Values{"function": {"OVERVIEW"}, "symbol": {sym}})
	if err != nil {
		logx.WithContext(ctx).Infof("alphavantage: overview symbol=%s unavailable: %v", sym, err)
		return ov
	}
	raw, err := json.Marshal(payload)
	if err == nil {
		_ = json.Unmarshal(raw, &ov)
	}
	return ov
}

type seriesSpec struct {
	function string
	interval string
	key      string
	layout   string
}

func specFor(period market.Period) seriesSpec {
	switch period {
	case market.Period1D:
		return seriesSpec{function: "TIME_SERIES_INTRADAY", interval: "5min", key: "Time Series (5min)", layout: time.DateTime}
	case market.Period1W:
		return seriesSpec{function: "TIME_SERIES_INTRADAY", interval: "60min", key: "Time Series (60min)", layout: time.DateTime}
	case market.Period5Y:
		return seriesSpec{function: "TIME_SERIES_WEEKLY", key: "Weekly Time Series", layout: time.DateOnly}
	default:
		return seriesSpec{function: "TIME_SERIES_DAILY", key: "Time Series (Daily)", layout: time.DateOnly}
	}
}

// FetchHistory reads the time series matching the period granularity and trims it to the period span.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	spec := specFor(period)
	params := url.Values{"function": {spec.function}, "symbol": {sym}}
	if spec.interval != "" {
		params.Set("interval", spec.interval)
	}
	if period != market.Period1D && period != market.Period1M && period != market.Period3M {
		params.Set("outputsize", "full")
	}
	payload, err := p.query(ctx, params)
	if err != nil {
		return nil, err
	}
	raw, ok := payload[spec.key]
	if !ok {
		return nil, fmt.Errorf("alphavantage: no %s for %s: %w", spec.key, sym, market.ErrNotFound)
	}
	var bars map[string]seriesBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, market.UpstreamError("alphavantage", fmt.Errorf("decode series: %w", err))
	}

	now := p.now().UTC()
	from := now.Add(-period.Span())
	series := &market.HistorySeries{Symbol: sym, Period: period, FetchedAt: now, Provider: p.name}
	for stamp, bar := range bars {
		ts, err := time.Parse(spec.layout, stamp)
		if err != nil {
			continue
		}
		if ts.Before(from) {
			continue
		}
		closePrice, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			continue
		}
		series.Points = append(series.Points, market.HistoryPoint{Date: ts, Close: closePrice})
	}
	if len(series.Points) == 0 {
		return nil, fmt.Errorf("alphavantage: empty series for %s/%s: %w", sym, period, market.ErrNotFound)
	}
	series.SortPoints()
	return series, nil
}

// FetchNews reads NEWS_SENTIMENT; scores and topics come straight from the feed.
func (p *Provider) FetchNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	payload, err := p.query(ctx, url.Values{
		"function": {"NEWS_SENTIMENT"},
		"tickers":  {sym},
		"sort":     {"LATEST"},
		"limit":    {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, market.UpstreamError("alphavantage", err)
	}
	var feed newsFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, market.UpstreamError("alphavantage", fmt.Errorf("decode news: %w", err))
	}

	now := p.now().UTC()
	items := make([]market.NewsItem, 0, len(feed.Feed))
	for _, a := range feed.Feed {
		published, err := time.Parse(newsTimeLayout, a.TimePublished)
		if err != nil {
			logx.WithContext(ctx).Errorf("alphavantage: skip article url=%s bad time_published=%q", a.URL, a.TimePublished)
			continue
		}
		score := a.OverallSentimentScore
		item := market.NewsItem{
			// the feed has no ids; derive a stable one from the URL so re-ingesting upserts
			ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(a.URL)).String(),
			Symbol:    sym,
			Title:     a.Title,
			Source:    a.Source,
			Date:      published.UTC(),
			Snippet:   a.Summary,
			URL:       a.URL,
			Sentiment: market.ParseSentiment(a.OverallSentimentLabel),
			Score:     &score,
			FetchedAt: now,
		}
		for _, topic := range a.Topics {
			item.Topics = append(item.Topics, market.Topic{
				Name:      topic.Topic,
				Relevance: parseFloatOr(topic.RelevanceScore, 0),
			})
		}
		items = append(items, item)
		if len(items) == limit {
			break
		}
	}
	if len(items) == 0 && len(feed.Feed) > 0 {
		return nil, market.UpstreamError("alphavantage", errors.New("no parseable articles"))
	}
	market.SortNewsByDate(items)
	return items, nil
}

func parseBar(b seriesBar) (market.QuoteBar, error) {
	var (
		out market.QuoteBar
		err error
	)
	fields := []struct {
		raw string
		dst *float64
	}{
		{b.Open, &out.Open},
		{b.High, &out.High},
		{b.Low, &out.Low},
		{b.Close, &out.Close},
		{b.Volume, &out.Volume},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(strings.TrimSpace(f.raw), 64); err != nil {
			return market.QuoteBar{}, fmt.Errorf("parse %q: %w", f.raw, err)
		}
	}
	return out, nil
}

// parseFloatOr tolerates the "None" and "-" placeholders Alpha Vantage uses for missing values.
func parseFloatOr(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}
