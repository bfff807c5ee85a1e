package stockpersist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cachekeys "stocklens-api/internal/cache"
	"stocklens-api/internal/model"
	"stocklens-api/pkg/market"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

var errCacheMiss = errors.New("cache miss")

// mapCache mimics go-zero's cache: values round-trip through JSON.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) GetCtx(ctx context.Context, key string, val any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return errCacheMiss
	}
	return json.Unmarshal(raw, val)
}

func (c *mapCache) SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.ttls[key] = expire
	return nil
}

func (c *mapCache) DelCtx(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *mapCache) IsNotFound(err error) bool {
	return errors.Is(err, errCacheMiss)
}

type quotesModelMock struct {
	mock.Mock
}

func (m *quotesModelMock) Insert(ctx context.Context, data *model.StockQuotes) (sql.Result, error) {
	args := m.Called(ctx, data)
	return nil, args.Error(1)
}

func (m *quotesModelMock) FindOne(ctx context.Context, symbol string) (*model.StockQuotes, error) {
	args := m.Called(ctx, symbol)
	row, _ := args.Get(0).(*model.StockQuotes)
	return row, args.Error(1)
}

func (m *quotesModelMock) Update(ctx context.Context, data *model.StockQuotes) error {
	return m.Called(ctx, data).Error(0)
}

func (m *quotesModelMock) Delete(ctx context.Context, symbol string) error {
	return m.Called(ctx, symbol).Error(0)
}

func (m *quotesModelMock) Upsert(ctx context.Context, data *model.StockQuotes) error {
	return m.Called(ctx, data).Error(0)
}

func (m *quotesModelMock) FindMany(ctx context.Context, symbols []string) ([]model.StockQuotes, error) {
	args := m.Called(ctx, symbols)
	rows, _ := args.Get(0).([]model.StockQuotes)
	return rows, args.Error(1)
}

type historyModelMock struct {
	mock.Mock
}

func (m *historyModelMock) Insert(ctx context.Context, data *model.StockHistory) (sql.Result, error) {
	args := m.Called(ctx, data)
	return nil, args.Error(1)
}

func (m *historyModelMock) FindOne(ctx context.Context, id int64) (*model.StockHistory, error) {
	args := m.Called(ctx, id)
	row, _ := args.Get(0).(*model.StockHistory)
	return row, args.Error(1)
}

func (m *historyModelMock) FindOneBySymbolPeriod(ctx context.Context, symbol string, period string) (*model.StockHistory, error) {
	args := m.Called(ctx, symbol, period)
	row, _ := args.Get(0).(*model.StockHistory)
	return row, args.Error(1)
}

func (m *historyModelMock) Update(ctx context.Context, data *model.StockHistory) error {
	return m.Called(ctx, data).Error(0)
}

func (m *historyModelMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *historyModelMock) Upsert(ctx context.Context, data *model.StockHistory) error {
	return m.Called(ctx, data).Error(0)
}

type newsModelMock struct {
	mock.Mock
}

func (m *newsModelMock) Insert(ctx context.Context, data *model.StockNews) (sql.Result, error) {
	args := m.Called(ctx, data)
	return nil, args.Error(1)
}

func (m *newsModelMock) FindOne(ctx context.Context, symbol string, id string) (*model.StockNews, error) {
	args := m.Called(ctx, symbol, id)
	row, _ := args.Get(0).(*model.StockNews)
	return row, args.Error(1)
}

func (m *newsModelMock) Update(ctx context.Context, data *model.StockNews) error {
	return m.Called(ctx, data).Error(0)
}

func (m *newsModelMock) Delete(ctx context.Context, symbol string, id string) error {
	return m.Called(ctx, symbol, id).Error(0)
}

func (m *newsModelMock) Upsert(ctx context.Context, data *model.StockNews) error {
	return m.Called(ctx, data).Error(0)
}

func (m *newsModelMock) ListBySymbol(ctx context.Context, symbol string, limit int) ([]model.StockNews, error) {
	args := m.Called(ctx, symbol, limit)
	rows, _ := args.Get(0).([]model.StockNews)
	return rows, args.Error(1)
}

func (m *newsModelMock) MarkFetched(ctx context.Context, symbol string, fetchedAt time.Time, articles int) error {
	return m.Called(ctx, symbol, fetchedAt, articles).Error(0)
}

func (m *newsModelMock) LastFetchedAt(ctx context.Context, symbol string) (time.Time, error) {
	args := m.Called(ctx, symbol)
	at, _ := args.Get(0).(time.Time)
	return at, args.Error(1)
}

type fixture struct {
	quotes  *quotesModelMock
	history *historyModelMock
	news    *newsModelMock
	cache   *mapCache
	service *Service
}

func newFixture(withCache bool) *fixture {
	f := &fixture{
		quotes:  &quotesModelMock{},
		history: &historyModelMock{},
		news:    &newsModelMock{},
		cache:   newMapCache(),
	}
	cfg := Config{
		QuotesModel:  f.quotes,
		HistoryModel: f.history,
		NewsModel:    f.news,
		TTL:          cachekeys.TTLSet{Short: 10 * time.Second, Medium: time.Minute, Long: 5 * time.Minute},
		Now:          func() time.Time { return testNow },
	}
	if withCache {
		cfg.Cache = f.cache
	}
	f.service = NewService(cfg)
	return f
}

func TestNewServiceRequiresModels(t *testing.T) {
	assert.Nil(t, NewService(Config{}))
}

func TestLoadQuoteReadsThroughCache(t *testing.T) {
	f := newFixture(true)
	f.quotes.On("FindOne", mock.Anything, "AAPL").Return(&model.StockQuotes{
		Symbol: "AAPL", Name: "Apple Inc.", Price: 150, Change: 2, ChangePercent: 1.35, Open: 148,
		Provider: sql.NullString{String: "polygon", Valid: true}, FetchedAt: testNow,
	}, nil).Once()

	q, err := f.service.LoadQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.0, q.Price)
	assert.Equal(t, "polygon", q.Provider)

	q, err = f.service.LoadQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1.35, q.ChangePercent)
	assert.Equal(t, time.Minute, f.cache.ttls[cachekeys.QuoteKey("AAPL")])
	f.quotes.AssertExpectations(t)
}

func TestLoadQuoteErrors(t *testing.T) {
	f := newFixture(false)
	f.quotes.On("FindOne", mock.Anything, "NONE").Return(nil, model.ErrNotFound)
	f.quotes.On("FindOne", mock.Anything, "DOWN").Return(nil, errors.New("dial tcp: connection refused"))

	_, err := f.service.LoadQuote(context.Background(), "NONE")
	assert.ErrorIs(t, err, market.ErrNotFound)
	_, err = f.service.LoadQuote(context.Background(), "DOWN")
	assert.ErrorIs(t, err, market.ErrStoreUnavailable)
}

func TestSaveQuoteUpsertsAndCaches(t *testing.T) {
	f := newFixture(true)
	f.quotes.On("Upsert", mock.Anything, mock.MatchedBy(func(row *model.StockQuotes) bool {
		return row.Symbol == "AAPL" && row.Price == 150 && row.FetchedAt.Equal(testNow) && !row.Provider.Valid
	})).Return(nil).Twice()

	q := market.NewQuote("AAPL", "", market.QuoteBar{Open: 148, High: 151, Low: 147, Close: 150, Volume: 1})
	q.Origin = market.OriginLive
	require.NoError(t, f.service.SaveQuote(context.Background(), q))
	require.NoError(t, f.service.SaveQuote(context.Background(), q))

	cached, err := f.service.LoadQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, cached.Origin)
	assert.Equal(t, "Apple Inc.", cached.Name)
	f.quotes.AssertExpectations(t)
}

func TestSaveQuoteFailureIsStoreUnavailable(t *testing.T) {
	f := newFixture(true)
	f.quotes.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("timeout"))

	err := f.service.SaveQuote(context.Background(), &market.Quote{Symbol: "AAPL"})
	assert.ErrorIs(t, err, market.ErrStoreUnavailable)
	_, ok := f.cache.data[cachekeys.QuoteKey("AAPL")]
	assert.False(t, ok)
}

func TestHistoryPointsRoundTripThroughMsgpack(t *testing.T) {
	f := newFixture(false)
	series := &market.HistorySeries{
		Symbol: "AAPL",
		Period: market.Period1M,
		Points: []market.HistoryPoint{
			{Date: testNow.Add(-48 * time.Hour), Close: 171.1},
			{Date: testNow.Add(-24 * time.Hour), Close: 173},
		},
		Provider: "polygon",
	}

	var saved *model.StockHistory
	f.history.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.StockHistory)
	}).Return(nil)
	require.NoError(t, f.service.SaveHistory(context.Background(), series))
	require.NotNil(t, saved)
	assert.Equal(t, int64(2), saved.PointCount)
	assert.Equal(t, "1m", saved.Period)
	assert.Equal(t, testNow, saved.FetchedAt)

	f.history.On("FindOneBySymbolPeriod", mock.Anything, "AAPL", "1m").Return(saved, nil)
	got, err := f.service.LoadHistory(context.Background(), "AAPL", market.Period1M)
	require.NoError(t, err)
	require.Len(t, got.Points, 2)
	assert.True(t, got.Points[0].Date.Equal(series.Points[0].Date))
	assert.Equal(t, 173.0, got.Points[1].Close)
	assert.Equal(t, "polygon", got.Provider)
}

func TestLoadHistoryCorruptPayload(t *testing.T) {
	f := newFixture(false)
	f.history.On("FindOneBySymbolPeriod", mock.Anything, "AAPL", "1y").Return(&model.StockHistory{Symbol: "AAPL", Period: "1y", Points: []byte{0xc1}}, nil)

	_, err := f.service.LoadHistory(context.Background(), "AAPL", market.Period1Y)
	assert.ErrorIs(t, err, market.ErrStoreUnavailable)
}

func TestNewsRoundTrip(t *testing.T) {
	f := newFixture(true)
	score := 0.42
	item := market.NewsItem{
		ID:     "n1",
		Title:  "Apple beats",
		Source: "Reuters",
		Date:   testNow.Add(-time.Hour),
		URL:    "https://example.com/n1",
		Score:  &score,
		Topics: []market.Topic{{Name: "Earnings", Relevance: 0.9}, {Name: "Technology", Relevance: 0.5}},
	}

	var saved *model.StockNews
	f.news.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.StockNews)
	}).Return(nil)
	f.news.On("MarkFetched", mock.Anything, "AAPL", testNow, 2).Return(nil).Once()
	require.NoError(t, f.service.SaveNews(context.Background(), "AAPL", []market.NewsItem{item, {ID: ""}}))
	f.news.AssertNumberOfCalls(t, "Upsert", 1)
	require.NotNil(t, saved)
	assert.Equal(t, "AAPL", saved.Symbol)
	assert.Equal(t, "neutral", saved.Sentiment)
	assert.Equal(t, []string{"Earnings", "Technology"}, []string(saved.Topics))
	assert.Equal(t, []float64{0.9, 0.5}, []float64(saved.TopicRelevance))

	f.news.On("ListBySymbol", mock.Anything, "AAPL", newsCacheDepth).Return([]model.StockNews{*saved}, nil).Once()
	items, err := f.service.LoadNews(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Score)
	assert.Equal(t, 0.42, *items[0].Score)
	assert.Equal(t, item.Topics, items[0].Topics)

	items, err = f.service.LoadNews(context.Background(), "AAPL", 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	f.news.AssertNumberOfCalls(t, "ListBySymbol", 1)
}

func TestLoadNewsNeverFetchedIsNotFound(t *testing.T) {
	f := newFixture(false)
	f.news.On("ListBySymbol", mock.Anything, "AAPL", newsCacheDepth).Return([]model.StockNews{}, nil)
	f.news.On("LastFetchedAt", mock.Anything, "AAPL").Return(time.Time{}, model.ErrNotFound)

	_, err := f.service.LoadNews(context.Background(), "AAPL", 5)
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestEmptyNewsFetchStaysFresh(t *testing.T) {
	f := newFixture(false)
	f.news.On("MarkFetched", mock.Anything, "QUIET", testNow, 0).Return(nil).Once()
	require.NoError(t, f.service.SaveNews(context.Background(), "QUIET", nil))
	f.news.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

	f.news.On("ListBySymbol", mock.Anything, "QUIET", newsCacheDepth).Return([]model.StockNews{}, nil)
	f.news.On("LastFetchedAt", mock.Anything, "QUIET").Return(testNow, nil)

	items, err := f.service.LoadNews(context.Background(), "QUIET", 5)
	require.NoError(t, err)
	assert.Empty(t, items)

	at, err := f.service.NewsFetchedAt(context.Background(), "QUIET")
	require.NoError(t, err)
	assert.True(t, at.Equal(testNow))
	f.news.AssertExpectations(t)
}

func TestMarkFetchedFailureIsStoreUnavailable(t *testing.T) {
	f := newFixture(false)
	f.news.On("MarkFetched", mock.Anything, "AAPL", testNow, 0).Return(errors.New("connection reset"))

	err := f.service.SaveNews(context.Background(), "AAPL", nil)
	assert.ErrorIs(t, err, market.ErrStoreUnavailable)
}

func TestNewsSharedIDSavedPerSymbol(t *testing.T) {
	f := newFixture(false)
	type rowKey struct{ symbol, id string }
	stored := map[rowKey]model.StockNews{}
	f.news.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		row := args.Get(1).(*model.StockNews)
		stored[rowKey{row.Symbol, row.Id}] = *row
	}).Return(nil)
	f.news.On("MarkFetched", mock.Anything, mock.Anything, testNow, mock.Anything).Return(nil)

	positive := 0.6
	shared := market.NewsItem{ID: "polygon-article-1", Title: "Apple and Microsoft rally", Date: testNow.Add(-time.Hour)}
	aapl := shared
	aapl.Score = &positive
	aapl.Sentiment = market.SentimentPositive
	require.NoError(t, f.service.SaveNews(context.Background(), "AAPL", []market.NewsItem{
		aapl,
		{ID: "aapl-only", Title: "Apple earnings", Date: testNow.Add(-2 * time.Hour)},
	}))
	require.NoError(t, f.service.SaveNews(context.Background(), "MSFT", []market.NewsItem{shared}))

	require.Len(t, stored, 3)
	kept := stored[rowKey{"AAPL", "polygon-article-1"}]
	assert.Equal(t, "positive", kept.Sentiment)
	assert.True(t, kept.Score.Valid)
	assert.Equal(t, "neutral", stored[rowKey{"MSFT", "polygon-article-1"}].Sentiment)
}

func TestNewsFetchedAt(t *testing.T) {
	f := newFixture(true)
	f.news.On("LastFetchedAt", mock.Anything, "AAPL").Return(testNow, nil).Once()
	f.news.On("LastFetchedAt", mock.Anything, "NONE").Return(time.Time{}, model.ErrNotFound)

	at, err := f.service.NewsFetchedAt(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, at.Equal(testNow))
	at, err = f.service.NewsFetchedAt(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, at.Equal(testNow))

	_, err = f.service.NewsFetchedAt(context.Background(), "NONE")
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestSaveNewsInvalidatesCache(t *testing.T) {
	f := newFixture(true)
	f.news.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.news.On("MarkFetched", mock.Anything, "AAPL", mock.Anything, 1).Return(nil)
	require.NoError(t, f.cache.SetWithExpireCtx(context.Background(), cachekeys.NewsKey("AAPL"), []market.NewsItem{}, time.Minute))
	require.NoError(t, f.cache.SetWithExpireCtx(context.Background(), cachekeys.NewsFetchedAtKey("AAPL"), testNow, time.Minute))

	require.NoError(t, f.service.SaveNews(context.Background(), "AAPL", []market.NewsItem{{ID: "x", Date: testNow}}))
	assert.Empty(t, f.cache.data)
}

func TestLoadQuotes(t *testing.T) {
	f := newFixture(false)
	f.quotes.On("FindMany", mock.Anything, []string{"AAPL", "MSFT"}).Return([]model.StockQuotes{{Symbol: "AAPL", Price: 150}}, nil)

	quotes, err := f.service.LoadQuotes(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "AAPL", quotes[0].Symbol)
}
