package model

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ StockNewsModel = (*customStockNewsModel)(nil)

type (
	// StockNewsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customStockNewsModel.
	StockNewsModel interface {
		stockNewsModel
		Upsert(ctx context.Context, data *StockNews) error
		ListBySymbol(ctx context.Context, symbol string, limit int) ([]StockNews, error)
		MarkFetched(ctx context.Context, symbol string, fetchedAt time.Time, articles int) error
		LastFetchedAt(ctx context.Context, symbol string) (time.Time, error)
	}

	customStockNewsModel struct {
		*defaultStockNewsModel
		fetchesTable string
	}
)

// NewStockNewsModel returns a model for the database table.
func NewStockNewsModel(conn sqlx.SqlConn) StockNewsModel {
	return &customStockNewsModel{
		defaultStockNewsModel: newStockNewsModel(conn),
		fetchesTable:          `"public"."stock_news_fetches"`,
	}
}

// Upsert inserts the article or refreshes the copy stored for the same symbol and id.
func (m *customStockNewsModel) Upsert(ctx context.Context, data *StockNews) error {
	const stmt = `
INSERT INTO public.stock_news (
    id, symbol, title, source, url, snippet, sentiment, score, topics, topic_relevance,
    published_at, fetched_at, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW()
)
ON CONFLICT (symbol, id) DO UPDATE SET
    title = EXCLUDED.title,
    source = EXCLUDED.source,
    url = EXCLUDED.url,
    snippet = EXCLUDED.snippet,
    sentiment = EXCLUDED.sentiment,
    score = EXCLUDED.score,
    topics = EXCLUDED.topics,
    topic_relevance = EXCLUDED.topic_relevance,
    published_at = EXCLUDED.published_at,
    fetched_at = EXCLUDED.fetched_at,
    updated_at = NOW();`
	if _, err := m.conn.ExecCtx(ctx, stmt,
		data.Id,
		data.Symbol,
		data.Title,
		data.Source,
		data.Url,
		data.Snippet,
		data.Sentiment,
		data.Score,
		data.Topics,
		data.TopicRelevance,
		data.PublishedAt,
		data.FetchedAt,
	); err != nil {
		return fmt.Errorf("stock_news.Upsert: %w", err)
	}
	return nil
}

// ListBySymbol returns articles for symbol, newest first. Limit defaults to 50 when non-positive.
func (m *customStockNewsModel) ListBySymbol(ctx context.Context, symbol string, limit int) ([]StockNews, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("select %s from %s where symbol = $1 order by published_at desc, id limit $2", stockNewsRows, m.table)
	var rows []StockNews
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, symbol, limit); err != nil {
		return nil, fmt.Errorf("stock_news.ListBySymbol query: %w", err)
	}
	return rows, nil
}

// MarkFetched records that news for symbol was fetched at fetchedAt, even when the
// fetch returned no articles.
func (m *customStockNewsModel) MarkFetched(ctx context.Context, symbol string, fetchedAt time.Time, articles int) error {
	stmt := fmt.Sprintf(`
INSERT INTO %s (symbol, fetched_at, article_count, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (symbol) DO UPDATE SET
    fetched_at = EXCLUDED.fetched_at,
    article_count = EXCLUDED.article_count,
    updated_at = NOW();`, m.fetchesTable)
	if _, err := m.conn.ExecCtx(ctx, stmt, symbol, fetchedAt, articles); err != nil {
		return fmt.Errorf("stock_news_fetches.MarkFetched: %w", err)
	}
	return nil
}

// LastFetchedAt returns when news for symbol was last fetched, or ErrNotFound when
// it never was.
func (m *customStockNewsModel) LastFetchedAt(ctx context.Context, symbol string) (time.Time, error) {
	query := fmt.Sprintf("select fetched_at from %s where symbol = $1 limit 1", m.fetchesTable)
	var row struct {
		FetchedAt time.Time `db:"fetched_at"`
	}
	switch err := m.conn.QueryRowCtx(ctx, &row, query, symbol); err {
	case nil:
		return row.FetchedAt, nil
	case sqlx.ErrNotFound:
		return time.Time{}, ErrNotFound
	default:
		return time.Time{}, fmt.Errorf("stock_news_fetches.LastFetchedAt query: %w", err)
	}
}
