package market

import (
	"sort"
	"time"
)

// Sentiment is the tone label attached to an article or a summary.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment maps provider labels ("Somewhat-Bullish", "positive", ...) onto the three labels.
func ParseSentiment(label string) Sentiment {
	switch label {
	case "positive", "Bullish", "Somewhat-Bullish", "bullish":
		return SentimentPositive
	case "negative", "Bearish", "Somewhat-Bearish", "bearish":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Topic is a provider-supplied tag with its relevance to the article.
type Topic struct {
	Name      string  `json:"name"`
	Relevance float64 `json:"relevance"`
}

// NewsItem is a single article about a symbol.
type NewsItem struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol,omitempty"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Date      time.Time `json:"date"`
	Snippet   string    `json:"snippet"`
	URL       string    `json:"url"`
	Sentiment Sentiment `json:"sentiment"`
	// Score is the provider sentiment score in [-1, 1] when one was supplied.
	Score     *float64  `json:"score,omitempty"`
	Topics    []Topic   `json:"topics,omitempty"`
	FetchedAt time.Time `json:"-"`
}

// SortNewsByDate orders items newest first.
func SortNewsByDate(items []NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
}

// CloneNews copies the slice so callers cannot mutate stored items.
func CloneNews(items []NewsItem) []NewsItem {
	if items == nil {
		return nil
	}
	out := make([]NewsItem, len(items))
	copy(out, items)
	return out
}
