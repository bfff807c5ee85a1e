package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"stocklens-api/internal/config"
	"stocklens-api/internal/logic/stock"
	"stocklens-api/internal/types"
	"stocklens-api/pkg/market"
)

// SetupErrorHandler installs the JSON error mapping. Outside prod, 5xx bodies
// carry the underlying error in details.
func SetupErrorHandler(c config.Config) {
	httpx.SetErrorHandlerCtx(ErrorHandler(!c.IsProd()))
}

// ErrorHandler maps domain errors onto status codes and {error, details} bodies.
func ErrorHandler(showDetails bool) func(ctx context.Context, err error) (int, any) {
	return func(ctx context.Context, err error) (int, any) {
		status, message := classify(err)
		body := types.ErrorResponse{Error: message}
		if status < http.StatusInternalServerError {
			if status == http.StatusBadRequest {
				body.Error = err.Error()
			}
			return status, body
		}
		logx.WithContext(ctx).Errorf("http: %s: %v", message, err)
		if showDetails {
			body.Details = err.Error()
		}
		return status, body
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, stock.ErrInvalidInput),
		errors.Is(err, market.ErrInvalidSymbol),
		errors.Is(err, market.ErrInvalidPeriod):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, stock.ErrStockNotFound):
		return http.StatusNotFound, "Stock not found"
	case errors.Is(err, market.ErrNotFound):
		return http.StatusNotFound, "Stock data not found"
	case errors.Is(err, market.ErrConfiguration):
		return http.StatusInternalServerError, "API key not configured"
	case errors.Is(err, market.ErrStoreUnavailable):
		return http.StatusInternalServerError, "Database error"
	case errors.Is(err, market.ErrUpstream),
		errors.Is(err, market.ErrUnsupported),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, "Failed to fetch stock data"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
