package market

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// quoteTolerance absorbs upstream rounding when checking derived fields.
const quoteTolerance = 0.011

// Quote is a point-in-time snapshot for a ticker symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"marketCap"`
	PERatio       float64   `json:"pe"`
	DividendYield float64   `json:"dividend"`
	FetchedAt     time.Time `json:"fetchedAt"`
	Provider      string    `json:"provider,omitempty"`
	Origin        Origin    `json:"origin,omitempty"`
}

// QuoteBar carries the raw OHLCV values a provider reports for a session.
type QuoteBar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// NewQuote builds a quote from a bar, deriving change fields from open and close.
func NewQuote(symbol, name string, bar QuoteBar) *Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if strings.TrimSpace(name) == "" {
		name = DefaultName(symbol)
	}
	q := &Quote{
		Symbol: symbol,
		Name:   name,
		Price:  bar.Close,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Volume: int64(math.Round(bar.Volume)),
	}
	q.Derive()
	return q
}

// Derive recomputes Change and ChangePercent from Price and Open.
func (q *Quote) Derive() {
	price := decimal.NewFromFloat(q.Price)
	open := decimal.NewFromFloat(q.Open)
	change := price.Sub(open).Round(2)
	q.Change = change.InexactFloat64()
	if open.IsZero() {
		q.ChangePercent = 0
		return
	}
	q.ChangePercent = change.Div(open).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// Validate checks the structural invariants of the quote.
func (q *Quote) Validate() error {
	if q == nil {
		return fmt.Errorf("quote: nil")
	}
	if strings.TrimSpace(q.Symbol) == "" {
		return fmt.Errorf("quote: %w", ErrInvalidSymbol)
	}
	if math.Abs(q.Change-(q.Price-q.Open)) > quoteTolerance {
		return fmt.Errorf("quote %s: change %.4f != price-open %.4f", q.Symbol, q.Change, q.Price-q.Open)
	}
	if q.Open != 0 {
		want := q.Change / q.Open * 100
		if math.Abs(q.ChangePercent-want) > quoteTolerance {
			return fmt.Errorf("quote %s: changePercent %.4f != %.4f", q.Symbol, q.ChangePercent, want)
		}
	}
	if q.Volume < 0 {
		return fmt.Errorf("quote %s: negative volume", q.Symbol)
	}
	return nil
}

// Clone returns a shallow copy safe to hand to another goroutine.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}
	c := *q
	return &c
}

var knownNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc.",
	"AMZN":  "Amazon.com, Inc.",
	"TSLA":  "Tesla, Inc.",
	"META":  "Meta Platforms, Inc.",
	"NFLX":  "Netflix, Inc.",
	"NVDA":  "NVIDIA Corporation",
}

// DefaultName returns a display name for symbols a provider did not describe.
func DefaultName(symbol string) string {
	if name, ok := knownNames[symbol]; ok {
		return name
	}
	return symbol + " Corporation"
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
