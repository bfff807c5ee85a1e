package stock

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
)

type GetQuoteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetQuoteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetQuoteLogic {
	return &GetQuoteLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetQuoteLogic) GetQuote(req *types.SymbolRequest) (resp *types.Stock, err error) {
	q, err := l.svcCtx.Resolver.Quote(l.ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	return toStock(q), nil
}
