// Package polygon implements market.Provider against the Polygon.io REST API.
package polygon

import (
	"context"
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
	defaultBaseURL         = "https://api.polygon.io"
	defaultProviderTimeout = 8 * time.Second
	dateLayout             = "2006-01-02"
)

// Provider fetches quotes, aggregates and news from Polygon.
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

// ProviderOption customises the Polygon provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClock overrides the time source used to compute history ranges.
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

// NewProvider constructs a Polygon provider authenticated with apiKey.
func NewProvider(name, apiKey string, opts ...ProviderOption) *Provider {
	cfg := &providerConfig{timeout: defaultProviderTimeout, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	clientOptions := append([]restclient.Option{restclient.WithQueryAuth("apiKey", apiKey)}, cfg.clientOptions...)
	return &Provider{
		client:  restclient.New("polygon", defaultBaseURL, clientOptions...),
		name:    name,
		timeout: cfg.timeout,
		now:     cfg.now,
	}
}

func init() {
	market.RegisterProvider("polygon", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
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

// FetchQuote reads the previous session bar and decorates it with snapshot details.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var prev aggsResponse
	path := fmt.Sprintf("/v2/aggs/ticker/%s/prev", url.PathEscape(sym))
	if err := p.client.GetJSON(ctx, path, url.Values{"adjusted": {"true"}}, &prev); err != nil {
		return nil, err
	}
	if len(prev.Results) == 0 {
		return nil, fmt.Errorf("polygon: no previous close for %s: %w", sym, market.ErrNotFound)
	}
	bar := prev.Results[0]

	details := p.details(ctx, sym)
	q := market.NewQuote(sym, details.Name, market.QuoteBar{
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	})
	q.MarketCap = details.MarketCap
	q.PERatio = details.PERatio
	q.DividendYield = details.DividendYield
	q.FetchedAt = p.now().UTC()
	q.Provider = p.name
	return q, nil
}

// details is best effort: the snapshot first, the v3 reference ticker when the snapshot has no name.
func (p *Provider) details(ctx context.Context, sym string) snapshotTicker {
	var snap snapshotResponse
	path := fmt.Sprintf("/v2/snapshot/locale/us/markets/stocks/tickers/%s", url.PathEscape(sym))
	if err := p.client.GetJSON(ctx, path, nil, &snap); err != nil {
		logx.WithContext(ctx).Infof("polygon: snapshot symbol=%s unavailable: %v", sym, err)
	}
	details := snap.Ticker
	if details.Name != "" {
		return details
	}

	var ref referenceResponse
	path = fmt.Sprintf("/v3/reference/tickers/%s", url.PathEscape(sym))
	if err := p.client.GetJSON(ctx, path, nil, &ref); err != nil {
		logx.WithContext(ctx).Infof("polygon: reference ticker symbol=%s unavailable: %v", sym, err)
		return details
	}
	details.Name = ref.Results.Name
	if details.MarketCap == 0 {
		details.MarketCap = ref.Results.MarketCap
	}
	return details
}

// FetchHistory reads aggregate bars covering the period.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	g := period.Granularity()
	to := p.now().UTC()
	from := to.Add(-period.Span())
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(sym), g.Multiplier, g.Unit, from.Format(dateLayout), to.Format(dateLayout))
	query := url.Values{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {"50000"},
	}
	var resp aggsResponse
	if err := p.client.GetJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("polygon: no aggregates for %s/%s: %w", sym, period, market.ErrNotFound)
	}
	series := &market.HistorySeries{
		Symbol:    sym,
		Period:    period,
		Points:    make([]market.HistoryPoint, 0, len(resp.Results)),
		FetchedAt: to,
		Provider:  p.name,
	}
	for _, bar := range resp.Results {
		series.Points = append(series.Points, market.HistoryPoint{
			Date:  time.UnixMilli(bar.Timestamp).UTC(),
			Close: bar.Close,
		})
	}
	series.SortPoints()
	return series, nil
}

// FetchNews reads reference news with per-ticker insights.
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

	query := url.Values{
		"ticker": {sym},
		"limit":  {strconv.Itoa(limit)},
		"order":  {"desc"},
		"sort":   {"published_utc"},
	}
	var resp newsResponse
	if err := p.client.GetJSON(ctx, "/v2/reference/news", query, &resp); err != nil {
		return nil, err
	}
	now := p.now().UTC()
	items := make([]market.NewsItem, 0, len(resp.Results))
	for _, a := range resp.Results {
		published, err := time.Parse(time.RFC3339, a.PublishedUTC)
		if err != nil {
			logx.WithContext(ctx).Errorf("polygon: skip article id=%s bad published_utc=%q", a.ID, a.PublishedUTC)
			continue
		}
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		item := market.NewsItem{
			ID:        id,
			Symbol:    sym,
			Title:     a.Title,
			Source:    a.Publisher.Name,
			Date:      published.UTC(),
			Snippet:   a.Description,
			URL:       a.ArticleURL,
			Sentiment: market.SentimentNeutral,
			FetchedAt: now,
		}
		for _, in := range a.Insights {
			if strings.EqualFold(in.Ticker, sym) {
				item.Sentiment = market.ParseSentiment(strings.ToLower(in.Sentiment))
				break
			}
		}
		for _, kw := range a.Keywords {
			item.Topics = append(item.Topics, market.Topic{Name: kw, Relevance: 1})
		}
		items = append(items, item)
	}
	if len(items) == 0 && len(resp.Results) > 0 {
		return nil, market.UpstreamError("polygon", errors.New("no parseable articles"))
	}
	market.SortNewsByDate(items)
	return items, nil
}
