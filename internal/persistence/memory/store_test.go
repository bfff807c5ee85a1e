package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens-api/pkg/market"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return New(WithClock(func() time.Time { return testNow }))
}

func TestQuoteUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.LoadQuote(ctx, "AAPL")
	assert.ErrorIs(t, err, market.ErrNotFound)

	q := market.NewQuote("AAPL", "Apple Inc.", market.QuoteBar{Open: 148, High: 151, Low: 147, Close: 150, Volume: 1e6})
	q.Origin = market.OriginLive
	require.NoError(t, s.SaveQuote(ctx, q))

	got, err := s.LoadQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Price)
	assert.Equal(t, testNow, got.FetchedAt)
	assert.Empty(t, got.Origin)

	q2 := market.NewQuote("AAPL", "Apple Inc.", market.QuoteBar{Open: 150, High: 153, Low: 149, Close: 152, Volume: 1e6})
	require.NoError(t, s.SaveQuote(ctx, q2))
	got, err = s.LoadQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 152.0, got.Price)

	got.Price = 1
	again, _ := s.LoadQuote(ctx, "AAPL")
	assert.Equal(t, 152.0, again.Price)
}

func TestHistoryKeyedBySymbolAndPeriod(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	series := &market.HistorySeries{
		Symbol: "AAPL",
		Period: market.Period1M,
		Points: []market.HistoryPoint{{Date: testNow.Add(-24 * time.Hour), Close: 1}, {Date: testNow, Close: 2}},
	}
	require.NoError(t, s.SaveHistory(ctx, series))

	got, err := s.LoadHistory(ctx, "AAPL", market.Period1M)
	require.NoError(t, err)
	assert.Len(t, got.Points, 2)
	assert.Equal(t, testNow, got.FetchedAt)

	_, err = s.LoadHistory(ctx, "AAPL", market.Period1Y)
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestNewsUpsertByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.NewsFetchedAt(ctx, "AAPL")
	assert.ErrorIs(t, err, market.ErrNotFound)

	items := []market.NewsItem{
		{ID: "a", Title: "old", Date: testNow.Add(-2 * time.Hour)},
		{ID: "b", Title: "new", Date: testNow.Add(-time.Hour)},
	}
	require.NoError(t, s.SaveNews(ctx, "AAPL", items))
	require.NoError(t, s.SaveNews(ctx, "AAPL", []market.NewsItem{{ID: "a", Title: "old, edited", Date: testNow.Add(-2 * time.Hour)}}))

	got, err := s.LoadNews(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "old, edited", got[1].Title)
	assert.Equal(t, "AAPL", got[1].Symbol)

	got, err = s.LoadNews(ctx, "AAPL", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	at, err := s.NewsFetchedAt(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, testNow, at)
}

func TestNewsSharedIDKeptPerSymbol(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	score := 0.6

	require.NoError(t, s.SaveNews(ctx, "AAPL", []market.NewsItem{
		{ID: "polygon-article-1", Title: "Apple and Microsoft rally", Date: testNow.Add(-time.Hour), Score: &score},
		{ID: "aapl-only", Title: "Apple earnings", Date: testNow.Add(-2 * time.Hour)},
	}))
	require.NoError(t, s.SaveNews(ctx, "MSFT", []market.NewsItem{
		{ID: "polygon-article-1", Title: "Apple and Microsoft rally", Date: testNow.Add(-time.Hour)},
	}))

	aapl, err := s.LoadNews(ctx, "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, aapl, 2)
	assert.Equal(t, "polygon-article-1", aapl[0].ID)
	assert.Equal(t, "AAPL", aapl[0].Symbol)
	require.NotNil(t, aapl[0].Score)
	assert.Equal(t, 0.6, *aapl[0].Score)

	msft, err := s.LoadNews(ctx, "MSFT", 0)
	require.NoError(t, err)
	require.Len(t, msft, 1)
	assert.Equal(t, "MSFT", msft[0].Symbol)
	assert.Nil(t, msft[0].Score)
}

func TestEmptyNewsSaveMarksFetched(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.SaveNews(ctx, "QUIET", nil))

	at, err := s.NewsFetchedAt(ctx, "QUIET")
	require.NoError(t, err)
	assert.Equal(t, testNow, at)

	items, err := s.LoadNews(ctx, "QUIET", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.SetFailure(errors.New("connection refused"))

	_, err := s.LoadQuote(ctx, "AAPL")
	assert.ErrorIs(t, err, market.ErrStoreUnavailable)
	assert.ErrorIs(t, s.SaveQuote(ctx, &market.Quote{Symbol: "AAPL"}), market.ErrStoreUnavailable)
	_, err = s.NewsFetchedAt(ctx, "AAPL")
	assert.ErrorIs(t, err, market.ErrStoreUnavailable)

	s.SetFailure(nil)
	_, err = s.LoadQuote(ctx, "AAPL")
	assert.ErrorIs(t, err, market.ErrNotFound)
}
