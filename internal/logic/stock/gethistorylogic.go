package stock

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
	"stocklens-api/pkg/market"
)

type GetHistoryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetHistoryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetHistoryLogic {
	return &GetHistoryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetHistory always fetches live and persists the series.
func (l *GetHistoryLogic) GetHistory(req *types.HistoryPathRequest) (resp []types.HistoryPoint, err error) {
	period, err := market.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	series, err := l.svcCtx.Resolver.FetchHistory(l.ctx, req.Symbol, period)
	if err != nil {
		return nil, err
	}
	return toPoints(series), nil
}

// GetCachedHistory serves the stored series under the freshness policy.
func (l *GetHistoryLogic) GetCachedHistory(req *types.HistoryPathRequest) ([]types.HistoryPoint, market.Origin, error) {
	period, err := market.ParsePeriod(req.Period)
	if err != nil {
		return nil, "", err
	}
	series, err := l.svcCtx.Resolver.History(l.ctx, req.Symbol, period)
	if err != nil {
		return nil, "", err
	}
	return toPoints(series), series.Origin, nil
}
