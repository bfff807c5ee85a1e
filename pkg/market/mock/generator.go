// Package mock produces synthetic quotes, series and news that satisfy the same
// invariants as provider data. It backs demo mode and the read-path fallback.
package mock

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"stocklens-api/pkg/market"
	"stocklens-api/pkg/sentiment"
)

// Trend biases the drift of generated series.
type Trend string

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendVolatile Trend = "volatile"
)

const priceFloor = 10.0

var (
	sources = []string{"Bloomberg", "CNBC", "Reuters", "Wall Street Journal", "Financial Times", "MarketWatch"}

	positiveHeadlines = []string{
		"%s Exceeds Quarterly Expectations",
		"%s Announces New Product Line",
		"%s Stock Surges After Analyst Upgrade",
		"%s Reports Record Revenue",
		"%s Expands Into New Markets",
	}
	negativeHeadlines = []string{
		"%s Faces Regulatory Scrutiny",
		"%s Misses Earnings Targets",
		"%s Shares Drop on Weak Guidance",
		"%s Announces Layoffs",
		"%s Recalls Product Due to Defects",
	}
	neutralHeadlines = []string{
		"%s Appoints New CEO",
		"%s Announces Board Reshuffle",
		"%s To Present at Industry Conference",
		"%s Updates Corporate Strategy",
		"%s Releases Sustainability Report",
	}

	keywordWords = []string{"growth", "revenue", "profit", "expansion", "decline", "innovation", "competition", "market"}
)

const snippet = "Synthetic article generated while live news is unavailable. Figures and events are illustrative only."

// Generator is a goroutine-safe pseudo-random data source.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithClock overrides the time source used to anchor dates.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New returns a generator with a fixed seed, so output is reproducible.
func New(seed uint64, opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewFromTime returns a generator seeded from the wall clock.
func NewFromTime(opts ...GeneratorOption) *Generator {
	return New(uint64(time.Now().UnixNano()), opts...)
}

// uniform returns a value in [lo, hi). Callers must hold g.mu.
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// Quote returns a synthetic snapshot whose change fields are consistent with price and open.
func (g *Generator) Quote(symbol string) *market.Quote {
	g.mu.Lock()
	price := market.Round2(g.uniform(50, 1050))
	open := market.Round2(price - g.uniform(-10, 10))
	if open <= 0 {
		open = price
	}
	high := market.Round2(max(price, open) + g.uniform(0, 10))
	low := market.Round2(min(price, open) - g.uniform(0, 10))
	if low < 0.01 {
		low = 0.01
	}
	volume := float64(1_000_000 + g.rng.IntN(10_000_000))
	marketCap := float64(10_000_000_000 + g.rng.Int64N(1_000_000_000_000))
	pe := market.Round2(g.uniform(10, 60))
	dividend := market.Round2(g.uniform(0, 3))
	g.mu.Unlock()

	q := market.NewQuote(symbol, "", market.QuoteBar{
		Open:   open,
		High:   high,
		Low:    low,
		Close:  price,
		Volume: volume,
	})
	q.MarketCap = marketCap
	q.PERatio = pe
	q.DividendYield = dividend
	q.FetchedAt = g.now().UTC()
	q.Origin = market.OriginMock
	return q
}

// pointCount returns how many bars cover the period at its granularity.
func pointCount(period market.Period) int {
	step := period.Granularity().Step()
	if step <= 0 {
		return 0
	}
	return int(period.Span() / step)
}

// History returns an ascending random walk ending now, biased by trend.
func (g *Generator) History(symbol string, period market.Period, trend Trend) *market.HistorySeries {
	n := pointCount(period)
	step := period.Granularity().Step()
	end := g.now().UTC().Truncate(step)

	points := make([]market.HistoryPoint, 0, n+1)
	g.mu.Lock()
	price := g.uniform(100, 300)
	for i := n; i >= 0; i-- {
		switch trend {
		case TrendUp:
			price += g.uniform(-1, 4)
		case TrendDown:
			price += g.uniform(-4, 1)
		default:
			price += g.uniform(-5, 5)
		}
		price = max(price, priceFloor)
		points = append(points, market.HistoryPoint{
			Date:  end.Add(-time.Duration(i) * step),
			Close: market.Round2(price),
		})
	}
	g.mu.Unlock()

	sym, _ := market.NormalizeSymbol(symbol)
	return &market.HistorySeries{
		Symbol:    sym,
		Period:    period,
		Points:    points,
		FetchedAt: g.now().UTC(),
		Origin:    market.OriginMock,
	}
}

// TrendFor picks a stable trend for symbol so repeated calls draw similar shapes.
func TrendFor(symbol string) Trend {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	switch h.Sum32() % 3 {
	case 0:
		return TrendUp
	case 1:
		return TrendDown
	default:
		return TrendVolatile
	}
}

// News returns count synthetic articles from the last week, newest first.
func (g *Generator) News(symbol string, count int) []market.NewsItem {
	sym, _ := market.NormalizeSymbol(symbol)
	now := g.now().UTC()
	items := make([]market.NewsItem, 0, count)

	g.mu.Lock()
	for i := 0; i < count; i++ {
		var (
			label market.Sentiment
			pool  []string
			score float64
		)
		switch g.rng.IntN(3) {
		case 0:
			label, pool, score = market.SentimentPositive, positiveHeadlines, g.uniform(0.3, 1)
		case 1:
			label, pool, score = market.SentimentNegative, negativeHeadlines, g.uniform(-1, -0.3)
		default:
			label, pool, score = market.SentimentNeutral, neutralHeadlines, g.uniform(-0.2, 0.2)
		}
		score = market.Round2(score)
		items = append(items, market.NewsItem{
			ID:        uuid.NewString(),
			Symbol:    sym,
			Title:     fmt.Sprintf(pool[g.rng.IntN(len(pool))], sym),
			Source:    sources[g.rng.IntN(len(sources))],
			Date:      now.Add(-time.Duration(g.rng.Int64N(int64(7 * 24 * time.Hour)))),
			Snippet:   snippet,
			URL:       "#",
			Sentiment: label,
			Score:     &score,
			FetchedAt: now,
		})
	}
	g.mu.Unlock()

	market.SortNewsByDate(items)
	return items
}

// Keywords returns the fixed candidate words with random tone, most frequent first.
func (g *Generator) Keywords() []sentiment.Keyword {
	out := make([]sentiment.Keyword, len(keywordWords))
	g.mu.Lock()
	for i, w := range keywordWords {
		out[i] = sentiment.Keyword{
			Word:        w,
			Score:       market.Round2(g.uniform(-50, 50)),
			Occurrences: 1 + g.rng.IntN(10),
		}
	}
	g.mu.Unlock()
	sentiment.SortKeywords(out)
	return out
}

// Sentiment summarises count synthetic articles for symbol.
func (g *Generator) Sentiment(symbol string, count int) sentiment.Summary {
	agg, _ := sentiment.NewAggregator(sentiment.WithFallbackKeywords(g.Keywords))
	return agg.Summarize(g.News(symbol, count))
}
