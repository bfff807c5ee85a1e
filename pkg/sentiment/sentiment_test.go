package sentiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens-api/pkg/market"
)

func labelled(labels ...market.Sentiment) []market.NewsItem {
	out := make([]market.NewsItem, len(labels))
	for i, l := range labels {
		out[i] = market.NewsItem{ID: string(rune('a' + i)), Title: "t", Sentiment: l, Date: time.Now()}
	}
	return out
}

func score(v float64) *float64 { return &v }

func TestSummarizeSixTwoTwo(t *testing.T) {
	agg, err := NewAggregator()
	require.NoError(t, err)

	items := labelled(
		market.SentimentPositive, market.SentimentPositive, market.SentimentPositive,
		market.SentimentPositive, market.SentimentPositive, market.SentimentPositive,
		market.SentimentNegative, market.SentimentNegative,
		market.SentimentNeutral, market.SentimentNeutral,
	)
	s := agg.Summarize(items)

	assert.Equal(t, 40.0, s.Overall.Score)
	assert.Equal(t, market.SentimentPositive, s.Overall.Label)
	assert.Equal(t, Breakdown{Positive: 60, Negative: 20, Neutral: 20}, s.Breakdown)
}

func TestSummarizeEmpty(t *testing.T) {
	agg, err := NewAggregator()
	require.NoError(t, err)

	s := agg.Summarize(nil)
	assert.Equal(t, 0.0, s.Overall.Score)
	assert.Equal(t, market.SentimentNeutral, s.Overall.Label)
	assert.Equal(t, 100.0, s.Breakdown.Sum())
	assert.Empty(t, s.Keywords)
}

func TestBreakdownSumsToHundred(t *testing.T) {
	agg, err := NewAggregator()
	require.NoError(t, err)

	for n := 1; n <= 13; n++ {
		var labels []market.Sentiment
		for i := 0; i < n; i++ {
			labels = append(labels, []market.Sentiment{market.SentimentPositive, market.SentimentNegative, market.SentimentNeutral}[i%3])
		}
		s := agg.Summarize(labelled(labels...))
		assert.InDelta(t, 100, s.Breakdown.Sum(), 1e-9, "n=%d", n)
		assert.Equal(t, agg.Thresholds().ClassifyOverall(s.Overall.Score), s.Overall.Label, "n=%d", n)
	}
}

func TestRelabelUsesArticleThresholds(t *testing.T) {
	agg, err := NewAggregator()
	require.NoError(t, err)

	items := []market.NewsItem{
		{ID: "1", Sentiment: market.SentimentNeutral, Score: score(0.3)},
		{ID: "2", Sentiment: market.SentimentPositive, Score: score(0.25)},
		{ID: "3", Sentiment: market.SentimentNeutral, Score: score(-0.26)},
		{ID: "4", Sentiment: market.SentimentNegative},
	}
	out := agg.Relabel(items)
	assert.Equal(t, market.SentimentPositive, out[0].Sentiment)
	assert.Equal(t, market.SentimentNeutral, out[1].Sentiment)
	assert.Equal(t, market.SentimentNegative, out[2].Sentiment)
	assert.Equal(t, market.SentimentNegative, out[3].Sentiment)
	// input untouched
	assert.Equal(t, market.SentimentPositive, items[1].Sentiment)
}

func TestCustomThresholds(t *testing.T) {
	agg, err := NewAggregator(WithThresholds(Thresholds{
		ArticlePositive: 0.5, ArticleNegative: -0.5,
		OverallPositive: 50, OverallNegative: -50,
	}))
	require.NoError(t, err)

	s := agg.Summarize(labelled(market.SentimentPositive, market.SentimentPositive, market.SentimentNeutral))
	assert.InDelta(t, 66.67, s.Overall.Score, 1e-9)
	assert.Equal(t, market.SentimentPositive, s.Overall.Label)

	s = agg.Summarize(labelled(market.SentimentPositive, market.SentimentNeutral))
	assert.Equal(t, market.SentimentNeutral, s.Overall.Label)
}

func TestInvertedThresholdsRejected(t *testing.T) {
	_, err := NewAggregator(WithThresholds(Thresholds{ArticlePositive: -1, ArticleNegative: 1}))
	assert.Error(t, err)
}

func TestKeywordsFromTopics(t *testing.T) {
	agg, err := NewAggregator(WithMaxKeywords(2))
	require.NoError(t, err)

	items := []market.NewsItem{
		{ID: "1", Score: score(0.5), Topics: []market.Topic{{Name: "Earnings"}, {Name: "Technology"}}},
		{ID: "2", Score: score(-0.1), Topics: []market.Topic{{Name: "earnings"}}},
		{ID: "3", Score: score(0.2), Topics: []market.Topic{{Name: "IPO"}, {Name: "Technology"}}},
	}
	s := agg.Summarize(items)
	require.Len(t, s.Keywords, 2)
	assert.Equal(t, Keyword{Word: "earnings", Score: 20, Occurrences: 2}, s.Keywords[0])
	assert.Equal(t, Keyword{Word: "technology", Score: 35, Occurrences: 2}, s.Keywords[1])
}

func TestKeywordsFallback(t *testing.T) {
	agg, err := NewAggregator(WithFallbackKeywords(func() []Keyword {
		return []Keyword{{Word: "growth", Occurrences: 1}, {Word: "profit", Occurrences: 9}}
	}))
	require.NoError(t, err)

	s := agg.Summarize(labelled(market.SentimentNeutral))
	require.Len(t, s.Keywords, 2)
	assert.Equal(t, "profit", s.Keywords[0].Word)
}

func TestKeywordsFromLabelOnlyArticles(t *testing.T) {
	agg, err := NewAggregator()
	require.NoError(t, err)

	ai := []market.Topic{{Name: "AI"}}
	items := []market.NewsItem{
		{ID: "1", Sentiment: market.SentimentPositive, Topics: ai},
		{ID: "2", Sentiment: market.SentimentPositive, Topics: ai},
		{ID: "3", Sentiment: market.SentimentNegative, Topics: ai},
		{ID: "4", Sentiment: market.SentimentNegative, Topics: []market.Topic{{Name: "Recall"}}},
		{ID: "5", Sentiment: market.SentimentNeutral, Topics: []market.Topic{{Name: "Chips"}}},
		{ID: "6", Sentiment: market.SentimentNegative, Score: score(0.5), Topics: []market.Topic{{Name: "Chips"}}},
	}
	s := agg.Summarize(items)
	require.Len(t, s.Keywords, 3)
	assert.Equal(t, Keyword{Word: "ai", Score: 33.33, Occurrences: 3}, s.Keywords[0])
	assert.Equal(t, Keyword{Word: "chips", Score: 25, Occurrences: 2}, s.Keywords[1])
	assert.Equal(t, Keyword{Word: "recall", Score: -100, Occurrences: 1}, s.Keywords[2])
}
