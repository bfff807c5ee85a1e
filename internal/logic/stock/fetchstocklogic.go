package stock

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
)

type FetchStockLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFetchStockLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FetchStockLogic {
	return &FetchStockLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// FetchStock calls the quote providers live and persists the result.
func (l *FetchStockLogic) FetchStock(req *types.SymbolRequest) (resp *types.Stock, err error) {
	q, err := l.svcCtx.Resolver.FetchQuote(l.ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	return toStock(q), nil
}
