package model

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ StockQuotesModel = (*customStockQuotesModel)(nil)

type (
	// StockQuotesModel is an interface to be customized, add more methods here,
	// and implement the added methods in customStockQuotesModel.
	StockQuotesModel interface {
		stockQuotesModel
		Upsert(ctx context.Context, data *StockQuotes) error
		FindMany(ctx context.Context, symbols []string) ([]StockQuotes, error)
	}

	customStockQuotesModel struct {
		*defaultStockQuotesModel
	}
)

// NewStockQuotesModel returns a model for the database table.
func NewStockQuotesModel(conn sqlx.SqlConn) StockQuotesModel {
	return &customStockQuotesModel{
		defaultStockQuotesModel: newStockQuotesModel(conn),
	}
}

// Upsert inserts the row or overwrites every column of the existing row for the symbol.
func (m *customStockQuotesModel) Upsert(ctx context.Context, data *StockQuotes) error {
	const stmt = `
INSERT INTO public.stock_quotes (
    symbol, name, price, change, change_percent, open, high, low, volume,
    market_cap, pe_ratio, dividend_yield, provider, fetched_at, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
)
ON CONFLICT (symbol) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    change = EXCLUDED.change,
    change_percent = EXCLUDED.change_percent,
    open = EXCLUDED.open,
    high = EXCLUDED.high,
    low = EXCLUDED.low,
    volume = EXCLUDED.volume,
    market_cap = EXCLUDED.market_cap,
    pe_ratio = EXCLUDED.pe_ratio,
    dividend_yield = EXCLUDED.dividend_yield,
    provider = EXCLUDED.provider,
    fetched_at = EXCLUDED.fetched_at,
    updated_at = NOW();`
	if _, err := m.conn.ExecCtx(ctx, stmt,
		data.Symbol,
		data.Name,
		data.Price,
		data.Change,
		data.ChangePercent,
		data.Open,
		data.High,
		data.Low,
		data.Volume,
		data.MarketCap,
		data.PeRatio,
		data.DividendYield,
		data.Provider,
		data.FetchedAt,
	); err != nil {
		return fmt.Errorf("stock_quotes.Upsert: %w", err)
	}
	return nil
}

// FindMany returns the stored rows for symbols ordered by symbol. Missing symbols are skipped.
func (m *customStockQuotesModel) FindMany(ctx context.Context, symbols []string) ([]StockQuotes, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("select %s from %s where symbol = ANY($1) order by symbol", stockQuotesRows, m.table)
	var rows []StockQuotes
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, pq.Array(symbols)); err != nil {
		return nil, fmt.Errorf("stock_quotes.FindMany query: %w", err)
	}
	return rows, nil
}
