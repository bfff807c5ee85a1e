package stock

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
)

type GetNewsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetNewsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetNewsLogic {
	return &GetNewsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetNews returns recent articles newest first, relabelled with the configured thresholds.
func (l *GetNewsLogic) GetNews(req *types.NewsRequest) (resp *types.NewsResponse, err error) {
	news, err := l.svcCtx.Resolver.News(l.ctx, req.Symbol, clampLimit(req.Limit))
	if err != nil {
		return nil, err
	}
	items := l.svcCtx.Sentiment.Relabel(news.Items)
	return &types.NewsResponse{
		Symbol:    news.Symbol,
		Origin:    string(news.Origin),
		FetchedAt: formatTime(news.FetchedAt),
		Items:     toNewsItems(items),
	}, nil
}
