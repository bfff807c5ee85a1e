// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package stock

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"stocklens-api/internal/logic/stock"
	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
	"stocklens-api/pkg/market"
)

func GetSentimentHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SymbolRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, stock.InvalidInput(err))
			return
		}

		l := stock.NewGetSentimentLogic(r.Context(), svcCtx)
		resp, err := l.GetSentiment(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			setOrigin(w, market.Origin(resp.Origin))
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
