package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ StockHistoryModel = (*customStockHistoryModel)(nil)

type (
	// StockHistoryModel is an interface to be customized, add more methods here,
	// and implement the added methods in customStockHistoryModel.
	StockHistoryModel interface {
		stockHistoryModel
		Upsert(ctx context.Context, data *StockHistory) error
	}

	customStockHistoryModel struct {
		*defaultStockHistoryModel
	}
)

// NewStockHistoryModel returns a model for the database table.
func NewStockHistoryModel(conn sqlx.SqlConn) StockHistoryModel {
	return &customStockHistoryModel{
		defaultStockHistoryModel: newStockHistoryModel(conn),
	}
}

// Upsert replaces the series stored for (symbol, period).
func (m *customStockHistoryModel) Upsert(ctx context.Context, data *StockHistory) error {
	const stmt = `
INSERT INTO public.stock_history (symbol, period, points, point_count, provider, fetched_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (symbol, period) DO UPDATE SET
    points = EXCLUDED.points,
    point_count = EXCLUDED.point_count,
    provider = EXCLUDED.provider,
    fetched_at = EXCLUDED.fetched_at,
    updated_at = NOW();`
	if _, err := m.conn.ExecCtx(ctx, stmt,
		data.Symbol,
		data.Period,
		data.Points,
		data.PointCount,
		data.Provider,
		data.FetchedAt,
	); err != nil {
		return fmt.Errorf("stock_history.Upsert: %w", err)
	}
	return nil
}
