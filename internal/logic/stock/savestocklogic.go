package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
	"stocklens-api/pkg/market"
)

type SaveStockLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
	now    func() time.Time
}

func NewSaveStockLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SaveStockLogic {
	return &SaveStockLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
		now:    time.Now,
	}
}

// SaveStock upserts the snapshot by symbol. Change fields are derived from
// price and open when the client leaves them out.
func (l *SaveStockLogic) SaveStock(req *types.SaveStockRequest) (resp *types.MessageResponse, err error) {
	q, err := l.quoteFromRequest(req)
	if err != nil {
		return nil, InvalidInput(err)
	}
	if err := l.svcCtx.Store.SaveQuote(l.ctx, q); err != nil {
		return nil, err
	}
	l.Infof("stock: saved snapshot symbol=%s", q.Symbol)
	return &types.MessageResponse{Message: "Stock data saved"}, nil
}

func (l *SaveStockLogic) quoteFromRequest(req *types.SaveStockRequest) (*market.Quote, error) {
	sym, err := market.NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = market.DefaultName(sym)
	}
	q := &market.Quote{
		Symbol:        sym,
		Name:          name,
		Price:         req.Price,
		Change:        req.Change,
		ChangePercent: req.ChangePercent,
		Open:          req.Open,
		High:          req.High,
		Low:           req.Low,
		Volume:        req.Volume,
		MarketCap:     req.MarketCap,
		PERatio:       req.PERatio,
		DividendYield: req.DividendYield,
		FetchedAt:     l.now().UTC(),
	}
	if req.FetchedAt != "" {
		ts, err := time.Parse(time.RFC3339, req.FetchedAt)
		if err != nil {
			return nil, fmt.Errorf("fetchedAt: %w", err)
		}
		q.FetchedAt = ts.UTC()
	}
	if q.Price <= 0 || q.Open <= 0 {
		return nil, fmt.Errorf("quote %s: price and open must be positive", sym)
	}
	if q.Change == 0 && q.ChangePercent == 0 {
		q.Derive()
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}
