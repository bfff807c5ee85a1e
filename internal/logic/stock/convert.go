package stock

import (
	"errors"
	"fmt"
	"time"

	"stocklens-api/internal/types"
	"stocklens-api/pkg/market"
	"stocklens-api/pkg/sentiment"
)

const (
	defaultNewsLimit = 10
	maxNewsLimit     = 50
)

// ErrInvalidInput marks request errors that map to 400.
var ErrInvalidInput = errors.New("invalid input")

// ErrStockNotFound marks a symbol with no stored snapshot. It wraps market.ErrNotFound.
var ErrStockNotFound = fmt.Errorf("stock not found: %w", market.ErrNotFound)

// InvalidInput wraps err as ErrInvalidInput.
func InvalidInput(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toStock(q *market.Quote) *types.Stock {
	return &types.Stock{
		Symbol:        q.Symbol,
		Name:          q.Name,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Volume:        q.Volume,
		MarketCap:     q.MarketCap,
		PERatio:       q.PERatio,
		DividendYield: q.DividendYield,
		FetchedAt:     formatTime(q.FetchedAt),
		Provider:      q.Provider,
		Origin:        string(q.Origin),
	}
}

func toPoints(series *market.HistorySeries) []types.HistoryPoint {
	out := make([]types.HistoryPoint, len(series.Points))
	for i, pt := range series.Points {
		out[i] = types.HistoryPoint{Date: formatTime(pt.Date), Close: pt.Close}
	}
	return out
}

func toNewsItems(items []market.NewsItem) []types.NewsItem {
	out := make([]types.NewsItem, len(items))
	for i, item := range items {
		var topics []string
		for _, t := range item.Topics {
			topics = append(topics, t.Name)
		}
		out[i] = types.NewsItem{
			Id:        item.ID,
			Title:     item.Title,
			Source:    item.Source,
			Date:      formatTime(item.Date),
			Snippet:   item.Snippet,
			Url:       item.URL,
			Sentiment: string(item.Sentiment),
			Score:     item.Score,
			Topics:    topics,
		}
	}
	return out
}

func toSentiment(symbol string, origin market.Origin, articles int, s sentiment.Summary) *types.SentimentResponse {
	keywords := make([]types.Keyword, len(s.Keywords))
	for i, k := range s.Keywords {
		keywords[i] = types.Keyword{Word: k.Word, Score: k.Score, Occurrences: k.Occurrences}
	}
	return &types.SentimentResponse{
		Symbol:   symbol,
		Origin:   string(origin),
		Articles: articles,
		Overall:  types.Overall{Score: s.Overall.Score, Label: string(s.Overall.Label)},
		Breakdown: types.Breakdown{
			Positive: s.Breakdown.Positive,
			Negative: s.Breakdown.Negative,
			Neutral:  s.Breakdown.Neutral,
		},
		Keywords: keywords,
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultNewsLimit
	case limit > maxNewsLimit:
		return maxNewsLimit
	default:
		return limit
	}
}
