package stock

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
)

type GetSentimentLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetSentimentLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetSentimentLogic {
	return &GetSentimentLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetSentiment summarises the most recent articles for the symbol.
func (l *GetSentimentLogic) GetSentiment(req *types.SymbolRequest) (resp *types.SentimentResponse, err error) {
	news, err := l.svcCtx.Resolver.News(l.ctx, req.Symbol, l.svcCtx.Config.Sentiment.NewsSample)
	if err != nil {
		return nil, err
	}
	summary := l.svcCtx.Sentiment.Summarize(news.Items)
	return toSentiment(news.Symbol, news.Origin, len(news.Items), summary), nil
}
