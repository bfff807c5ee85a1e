package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
	"stocklens-api/pkg/market"
)

type GetStockLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetStockLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetStockLogic {
	return &GetStockLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetStock reads the stored snapshot only; it never calls a provider.
func (l *GetStockLogic) GetStock(req *types.SymbolRequest) (resp *types.Stock, err error) {
	sym, err := market.NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	q, err := l.svcCtx.Store.LoadQuote(l.ctx, sym)
	if errors.Is(err, market.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", sym, ErrStockNotFound)
	}
	if err != nil {
		return nil, err
	}
	q.Origin = market.OriginCache
	return toStock(q), nil
}
