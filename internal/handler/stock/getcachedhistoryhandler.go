package stock

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"stocklens-api/internal/logic/stock"
	"stocklens-api/internal/svc"
	"stocklens-api/internal/types"
)

func GetCachedHistoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.HistoryPathRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, stock.InvalidInput(err))
			return
		}

		l := stock.NewGetHistoryLogic(r.Context(), svcCtx)
		points, origin, err := l.GetCachedHistory(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		setOrigin(w, origin)
		httpx.OkJsonCtx(r.Context(), w, points)
	}
}
