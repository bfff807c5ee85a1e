package stockpersist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "stocklens-api/internal/cache"
	"stocklens-api/internal/model"
	"stocklens-api/pkg/market"
)

// newsCacheDepth is how many of the newest articles per symbol are kept in redis.
const newsCacheDepth = 50

// Cache is the subset of go-zero's stores/cache.Cache the service relies on.
type Cache interface {
	GetCtx(ctx context.Context, key string, val any) error
	SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error
	DelCtx(ctx context.Context, keys ...string) error
	IsNotFound(err error) bool
}

// Service implements market.Store on Postgres with a redis read-through cache.
type Service struct {
	quotesModel  model.StockQuotesModel
	historyModel model.StockHistoryModel
	newsModel    model.StockNewsModel
	cache        Cache
	ttl          cachekeys.TTLSet
	now          func() time.Time
}

var _ market.Store = (*Service)(nil)

// Config enumerates dependencies required to persist market data.
type Config struct {
	QuotesModel  model.StockQuotesModel
	HistoryModel model.StockHistoryModel
	NewsModel    model.StockNewsModel
	// Cache is optional; without it every read goes to Postgres.
	Cache Cache
	TTL   cachekeys.TTLSet
	Now   func() time.Time
}

// NewService wires a persistence service. Returns nil when a model is missing.
func NewService(cfg Config) *Service {
	if cfg.QuotesModel == nil || cfg.HistoryModel == nil || cfg.NewsModel == nil {
		return nil
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		quotesModel:  cfg.QuotesModel,
		historyModel: cfg.HistoryModel,
		newsModel:    cfg.NewsModel,
		cache:        cfg.Cache,
		ttl:          cfg.TTL,
		now:          now,
	}
}

// LoadQuote implements market.Store.
func (s *Service) LoadQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	var q market.Quote
	if s.cacheGet(ctx, cachekeys.QuoteKey(symbol), &q) {
		return &q, nil
	}
	row, err := s.quotesModel.FindOne(ctx, symbol)
	if err != nil {
		return nil, classify("load quote", symbol, err)
	}
	out := quoteFromRow(row)
	s.cacheSet(ctx, cachekeys.QuoteKey(symbol), out, cachekeys.QuoteTTL(s.ttl))
	return out, nil
}

// SaveQuote implements market.Store.
func (s *Service) SaveQuote(ctx context.Context, quote *market.Quote) error {
	if quote == nil || strings.TrimSpace(quote.Symbol) == "" {
		return nil
	}
	stored := quote.Clone()
	stored.Origin = ""
	if stored.FetchedAt.IsZero() {
		stored.FetchedAt = s.now().UTC()
	}
	if err := s.quotesModel.Upsert(ctx, rowFromQuote(stored)); err != nil {
		return market.StoreError("save quote", err)
	}
	s.cacheSet(ctx, cachekeys.QuoteKey(stored.Symbol), stored, cachekeys.QuoteTTL(s.ttl))
	return nil
}

// LoadQuotes returns stored quotes for symbols, skipping symbols without a row.
func (s *Service) LoadQuotes(ctx context.Context, symbols []string) ([]*market.Quote, error) {
	rows, err := s.quotesModel.FindMany(ctx, symbols)
	if err != nil {
		return nil, market.StoreError("load quotes", err)
	}
	out := make([]*market.Quote, 0, len(rows))
	for i := range rows {
		out = append(out, quoteFromRow(&rows[i]))
	}
	return out, nil
}

// LoadHistory implements market.Store.
func (s *Service) LoadHistory(ctx context.Context, symbol string, period market.Period) (*market.HistorySeries, error) {
	key := cachekeys.HistoryKey(symbol, string(period))
	var series market.HistorySeries
	if s.cacheGet(ctx, key, &series) {
		return &series, nil
	}
	row, err := s.historyModel.FindOneBySymbolPeriod(ctx, symbol, string(period))
	if err != nil {
		return nil, classify("load history", symbol+"/"+string(period), err)
	}
	out, err := seriesFromRow(row)
	if err != nil {
		return nil, market.StoreError("decode history", err)
	}
	s.cacheSet(ctx, key, out, cachekeys.HistoryTTL(s.ttl))
	return out, nil
}

// SaveHistory implements market.Store.
func (s *Service) SaveHistory(ctx context.Context, series *market.HistorySeries) error {
	if series == nil || len(series.Points) == 0 {
		return nil
	}
	stored := series.Clone()
	stored.Origin = ""
	if stored.FetchedAt.IsZero() {
		stored.FetchedAt = s.now().UTC()
	}
	row, err := rowFromSeries(stored)
	if err != nil {
		return market.StoreError("encode history", err)
	}
	if err := s.historyModel.Upsert(ctx, row); err != nil {
		return market.StoreError("save history", err)
	}
	s.cacheSet(ctx, cachekeys.HistoryKey(stored.Symbol, string(stored.Period)), stored, cachekeys.HistoryTTL(s.ttl))
	return nil
}

// LoadNews implements market.Store. Pages up to newsCacheDepth are served from redis.
func (s *Service) LoadNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	if limit <= 0 || limit > newsCacheDepth {
		return s.listNews(ctx, symbol, limit)
	}
	key := cachekeys.NewsKey(symbol)
	var items []market.NewsItem
	if !s.cacheGet(ctx, key, &items) {
		var err error
		if items, err = s.listNews(ctx, symbol, newsCacheDepth); err != nil {
			return nil, err
		}
		s.cacheSet(ctx, key, items, cachekeys.NewsTTL(s.ttl))
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Service) listNews(ctx context.Context, symbol string, limit int) ([]market.NewsItem, error) {
	rows, err := s.newsModel.ListBySymbol(ctx, symbol, limit)
	if err != nil {
		return nil, market.StoreError("load news", err)
	}
	if len(rows) == 0 {
		// a recorded fetch without articles is an empty page, not an absent one
		if _, err := s.newsModel.LastFetchedAt(ctx, symbol); err != nil {
			return nil, classify("load news", symbol, err)
		}
		return []market.NewsItem{}, nil
	}
	items := make([]market.NewsItem, 0, len(rows))
	for i := range rows {
		items = append(items, newsFromRow(&rows[i]))
	}
	return items, nil
}

// SaveNews implements market.Store. The fetch is recorded for symbol even when items
// is empty, and cached pages for symbol are invalidated.
func (s *Service) SaveNews(ctx context.Context, symbol string, items []market.NewsItem) error {
	now := s.now().UTC()
	var latest time.Time
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		item.Symbol = symbol
		if item.FetchedAt.IsZero() {
			item.FetchedAt = now
		}
		if err := s.newsModel.Upsert(ctx, rowFromNews(item)); err != nil {
			return market.StoreError("save news", err)
		}
		if item.FetchedAt.After(latest) {
			latest = item.FetchedAt
		}
	}
	if latest.IsZero() {
		latest = now
	}
	if err := s.newsModel.MarkFetched(ctx, symbol, latest, len(items)); err != nil {
		return market.StoreError("save news", err)
	}
	if s.cache != nil {
		if err := s.cache.DelCtx(ctx, cachekeys.NewsKey(symbol), cachekeys.NewsFetchedAtKey(symbol)); err != nil {
			logx.WithContext(ctx).Errorf("stockpersist: invalidate news symbol=%s err=%v", symbol, err)
		}
	}
	return nil
}

// NewsFetchedAt implements market.Store.
func (s *Service) NewsFetchedAt(ctx context.Context, symbol string) (time.Time, error) {
	key := cachekeys.NewsFetchedAtKey(symbol)
	var at time.Time
	if s.cacheGet(ctx, key, &at) {
		return at, nil
	}
	at, err := s.newsModel.LastFetchedAt(ctx, symbol)
	if err != nil {
		return time.Time{}, classify("news fetched at", symbol, err)
	}
	s.cacheSet(ctx, key, at, cachekeys.NewsTTL(s.ttl))
	return at, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, v any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.GetCtx(ctx, key, v)
	if err == nil {
		return true
	}
	if !s.cache.IsNotFound(err) {
		logx.WithContext(ctx).Errorf("stockpersist: cache get key=%s err=%v", key, err)
	}
	return false
}

func (s *Service) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	if err := s.cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("stockpersist: cache set key=%s err=%v", key, err)
	}
}

func classify(op, key string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", op, key, market.ErrNotFound)
	}
	return market.StoreError(op, err)
}

func quoteFromRow(row *model.StockQuotes) *market.Quote {
	return &market.Quote{
		Symbol:        row.Symbol,
		Name:          row.Name,
		Price:         row.Price,
		Change:        row.Change,
		ChangePercent: row.ChangePercent,
		Open:          row.Open,
		High:          row.High,
		Low:           row.Low,
		Volume:        row.Volume,
		MarketCap:     row.MarketCap,
		PERatio:       row.PeRatio,
		DividendYield: row.DividendYield,
		FetchedAt:     row.FetchedAt.UTC(),
		Provider:      row.Provider.String,
	}
}

func rowFromQuote(q *market.Quote) *model.StockQuotes {
	return &model.StockQuotes{
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
		PeRatio:       q.PERatio,
		DividendYield: q.DividendYield,
		Provider:      sql.NullString{String: q.Provider, Valid: q.Provider != ""},
		FetchedAt:     q.FetchedAt,
	}
}

func seriesFromRow(row *model.StockHistory) (*market.HistorySeries, error) {
	var points []market.HistoryPoint
	if err := msgpack.Unmarshal(row.Points, &points); err != nil {
		return nil, err
	}
	for i := range points {
		points[i].Date = points[i].Date.UTC()
	}
	return &market.HistorySeries{
		Symbol:    row.Symbol,
		Period:    market.Period(row.Period),
		Points:    points,
		FetchedAt: row.FetchedAt.UTC(),
		Provider:  row.Provider.String,
	}, nil
}

func rowFromSeries(series *market.HistorySeries) (*model.StockHistory, error) {
	payload, err := msgpack.Marshal(series.Points)
	if err != nil {
		return nil, err
	}
	return &model.StockHistory{
		Symbol:     series.Symbol,
		Period:     string(series.Period),
		Points:     payload,
		PointCount: int64(len(series.Points)),
		Provider:   sql.NullString{String: series.Provider, Valid: series.Provider != ""},
		FetchedAt:  series.FetchedAt,
	}, nil
}

func newsFromRow(row *model.StockNews) market.NewsItem {
	item := market.NewsItem{
		ID:        row.Id,
		Symbol:    row.Symbol,
		Title:     row.Title,
		Source:    row.Source,
		Date:      row.PublishedAt.UTC(),
		Snippet:   row.Snippet,
		URL:       row.Url,
		Sentiment: market.ParseSentiment(row.Sentiment),
		FetchedAt: row.FetchedAt.UTC(),
	}
	if row.Score.Valid {
		score := row.Score.Float64
		item.Score = &score
	}
	for i, name := range row.Topics {
		topic := market.Topic{Name: name}
		if i < len(row.TopicRelevance) {
			topic.Relevance = row.TopicRelevance[i]
		}
		item.Topics = append(item.Topics, topic)
	}
	return item
}

func rowFromNews(item market.NewsItem) *model.StockNews {
	row := &model.StockNews{
		Id:             item.ID,
		Symbol:         item.Symbol,
		Title:          item.Title,
		Source:         item.Source,
		Url:            item.URL,
		Snippet:        item.Snippet,
		Sentiment:      string(item.Sentiment),
		Topics:         pq.StringArray{},
		TopicRelevance: pq.Float64Array{},
		PublishedAt:    item.Date,
		FetchedAt:      item.FetchedAt,
	}
	if row.Sentiment == "" {
		row.Sentiment = string(market.SentimentNeutral)
	}
	if item.Score != nil {
		row.Score = sql.NullFloat64{Float64: *item.Score, Valid: true}
	}
	for _, topic := range item.Topics {
		row.Topics = append(row.Topics, topic.Name)
		row.TopicRelevance = append(row.TopicRelevance, topic.Relevance)
	}
	return row
}
