package stock

import (
	"net/http"

	"stocklens-api/pkg/market"
)

// OriginHeader tells the client whether data is live, cached, stale or simulated.
const OriginHeader = "X-Data-Origin"

func setOrigin(w http.ResponseWriter, origin market.Origin) {
	if origin != "" {
		w.Header().Set(OriginHeader, string(origin))
	}
}
