package mock

import (
	"context"

	"stocklens-api/pkg/market"
)

const defaultNewsCount = 10

// Provider serves generator output through the market.Provider contract.
type Provider struct {
	gen  *Generator
	name string
}

var _ market.Provider = (*Provider)(nil)

// NewProvider wraps gen.
func NewProvider(name string, gen *Generator) *Provider {
	return &Provider{gen: gen, name: name}
}

func init() {
	market.RegisterProvider("mock", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		gen := NewFromTime()
		if cfg != nil && cfg.Seed != 0 {
			gen = New(cfg.Seed)
		}
		return NewProvider(name, gen), nil
	})
}

// FetchQuote implements market.Provider.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	q := p.gen.Quote(sym)
	q.Provider = p.name
	return q, nil
}

// FetchHistory implements market.Provider.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	s := p.gen.History(sym, period, TrendFor(sym))
	s.Provider = p.name
	return s, nil
}

// FetchNews implements market.Provider.
func (p *Provider) FetchNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNewsCount
	}
	return p.gen.News(sym, limit), nil
}
