// Package sentiment reduces a set of news articles into an overall tone summary.
package sentiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"stocklens-api/pkg/market"
)

const defaultMaxKeywords = 8

// Thresholds controls how scores map onto labels.
// Article thresholds apply to provider scores in [-1, 1]; overall thresholds to the
// aggregate score in [-100, 100].
type Thresholds struct {
	ArticlePositive float64
	ArticleNegative float64
	OverallPositive float64
	OverallNegative float64
}

// DefaultThresholds returns ±0.25 per article and ±20 overall.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ArticlePositive: 0.25,
		ArticleNegative: -0.25,
		OverallPositive: 20,
		OverallNegative: -20,
	}
}

// Validate rejects inverted thresholds.
func (t Thresholds) Validate() error {
	if t.ArticleNegative > t.ArticlePositive {
		return fmt.Errorf("sentiment: article thresholds inverted (negative %.2f > positive %.2f)", t.ArticleNegative, t.ArticlePositive)
	}
	if t.OverallNegative > t.OverallPositive {
		return fmt.Errorf("sentiment: overall thresholds inverted (negative %.2f > positive %.2f)", t.OverallNegative, t.OverallPositive)
	}
	return nil
}

// ClassifyArticle labels a provider score.
func (t Thresholds) ClassifyArticle(score float64) market.Sentiment {
	return classify(score, t.ArticlePositive, t.ArticleNegative)
}

// ClassifyOverall labels an aggregate score.
func (t Thresholds) ClassifyOverall(score float64) market.Sentiment {
	return classify(score, t.OverallPositive, t.OverallNegative)
}

func classify(score, pos, neg float64) market.Sentiment {
	switch {
	case score > pos:
		return market.SentimentPositive
	case score < neg:
		return market.SentimentNegative
	default:
		return market.SentimentNeutral
	}
}

// Overall is the aggregate tone.
type Overall struct {
	Score float64          `json:"score"`
	Label market.Sentiment `json:"label"`
}

// Breakdown holds label percentages that sum to 100.
type Breakdown struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Sum returns the total of the three percentages.
func (b Breakdown) Sum() float64 {
	return b.Positive + b.Negative + b.Neutral
}

// Keyword is a term with its tone and how many articles mention it.
type Keyword struct {
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
	Occurrences int     `json:"occurrences"`
}

// Summary is the reduction of a set of articles.
type Summary struct {
	Overall   Overall   `json:"overall"`
	Breakdown Breakdown `json:"breakdown"`
	Keywords  []Keyword `json:"keywords"`
}

// SortKeywords orders keywords by occurrences descending, then word ascending.
func SortKeywords(keywords []Keyword) {
	sort.SliceStable(keywords, func(i, j int) bool {
		if keywords[i].Occurrences != keywords[j].Occurrences {
			return keywords[i].Occurrences > keywords[j].Occurrences
		}
		return keywords[i].Word < keywords[j].Word
	})
}

// Aggregator builds summaries with fixed thresholds.
type Aggregator struct {
	thresholds  Thresholds
	maxKeywords int
	fallback    func() []Keyword
}

// Option customises an Aggregator.
type Option func(*Aggregator)

// WithThresholds overrides the default thresholds.
func WithThresholds(t Thresholds) Option {
	return func(a *Aggregator) {
		a.thresholds = t
	}
}

// WithMaxKeywords caps the number of keywords returned.
func WithMaxKeywords(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxKeywords = n
		}
	}
}

// WithFallbackKeywords supplies keywords when no article carries topic tags.
func WithFallbackKeywords(fn func() []Keyword) Option {
	return func(a *Aggregator) {
		a.fallback = fn
	}
}

// NewAggregator constructs an Aggregator.
func NewAggregator(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		thresholds:  DefaultThresholds(),
		maxKeywords: defaultMaxKeywords,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.thresholds.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Thresholds returns the configured thresholds.
func (a *Aggregator) Thresholds() Thresholds {
	return a.thresholds
}

// Relabel applies the article thresholds to every item carrying a score.
// Items without a score keep their label. The input slice is not modified.
func (a *Aggregator) Relabel(items []market.NewsItem) []market.NewsItem {
	out := market.CloneNews(items)
	for i := range out {
		if out[i].Score != nil {
			out[i].Sentiment = a.thresholds.ClassifyArticle(*out[i].Score)
		}
	}
	return out
}

// Summarize reduces items into a Summary. An empty input yields a neutral summary
// with an all-neutral breakdown.
func (a *Aggregator) Summarize(items []market.NewsItem) Summary {
	if len(items) == 0 {
		return Summary{
			Overall:   Overall{Score: 0, Label: market.SentimentNeutral},
			Breakdown: Breakdown{Neutral: 100},
			Keywords:  []Keyword{},
		}
	}

	labelled := a.Relabel(items)
	var pos, neg int64
	for _, item := range labelled {
		switch item.Sentiment {
		case market.SentimentPositive:
			pos++
		case market.SentimentNegative:
			neg++
		}
	}

	total := decimal.NewFromInt(int64(len(labelled)))
	hundred := decimal.NewFromInt(100)
	score := decimal.NewFromInt(pos - neg).Div(total).Mul(hundred).Round(2)
	posPct := decimal.NewFromInt(pos).Div(total).Mul(hundred).Round(2)
	negPct := decimal.NewFromInt(neg).Div(total).Mul(hundred).Round(2)
	// neutral absorbs rounding so the breakdown sums to exactly 100
	neuPct := hundred.Sub(posPct).Sub(negPct)

	overall := score.InexactFloat64()
	return Summary{
		Overall: Overall{Score: overall, Label: a.thresholds.ClassifyOverall(overall)},
		Breakdown: Breakdown{
			Positive: posPct.InexactFloat64(),
			Negative: negPct.InexactFloat64(),
			Neutral:  neuPct.InexactFloat64(),
		},
		Keywords: a.keywords(labelled),
	}
}

// articleWeight is the article's score, or +1/-1/0 from its label when the
// provider only reports a label.
func articleWeight(item market.NewsItem) decimal.Decimal {
	if item.Score != nil {
		return decimal.NewFromFloat(*item.Score)
	}
	switch item.Sentiment {
	case market.SentimentPositive:
		return decimal.NewFromInt(1)
	case market.SentimentNegative:
		return decimal.NewFromInt(-1)
	default:
		return decimal.Zero
	}
}

type keywordAcc struct {
	count int
	sum   decimal.Decimal
}

func (a *Aggregator) keywords(items []market.NewsItem) []Keyword {
	acc := make(map[string]*keywordAcc)
	for _, item := range items {
		score := articleWeight(item)
		seen := make(map[string]struct{}, len(item.Topics))
		for _, topic := range item.Topics {
			word := strings.ToLower(strings.TrimSpace(topic.Name))
			if word == "" {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			entry, ok := acc[word]
			if !ok {
				entry = &keywordAcc{}
				acc[word] = entry
			}
			entry.count++
			entry.sum = entry.sum.Add(score)
		}
	}

	var out []Keyword
	if len(acc) == 0 {
		if a.fallback == nil {
			return []Keyword{}
		}
		out = a.fallback()
	} else {
		out = make([]Keyword, 0, len(acc))
		hundred := decimal.NewFromInt(100)
		for word, entry := range acc {
			mean := entry.sum.Div(decimal.NewFromInt(int64(entry.count)))
			out = append(out, Keyword{
				Word:        word,
				Score:       mean.Mul(hundred).Round(2).InexactFloat64(),
				Occurrences: entry.count,
			})
		}
	}
	SortKeywords(out)
	if len(out) > a.maxKeywords {
		out = out[:a.maxKeywords]
	}
	return out
}
