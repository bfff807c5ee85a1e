package market

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no data exists for the request on the consulted source.
	ErrNotFound = errors.New("market: not found")
	// ErrUpstream means a provider was reachable but failed or returned an unusable payload.
	ErrUpstream = errors.New("market: upstream error")
	// ErrStoreUnavailable means the persistent store could not be reached or queried.
	ErrStoreUnavailable = errors.New("market: store unavailable")
	// ErrConfiguration means a required setting (API key, DSN) is missing or invalid.
	ErrConfiguration = errors.New("market: configuration error")
	// ErrUnsupported means the backend does not implement the requested capability.
	ErrUnsupported = errors.New("market: capability not supported")
	// ErrInvalidSymbol is returned for blank ticker symbols.
	ErrInvalidSymbol = errors.New("market: invalid symbol")
	// ErrInvalidPeriod is returned for periods outside the supported set.
	ErrInvalidPeriod = errors.New("market: invalid period")
)

// UpstreamError wraps cause as an ErrUpstream raised by the named provider.
func UpstreamError(provider string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, provider, cause)
}

// StoreError wraps cause as an ErrStoreUnavailable for the named operation.
func StoreError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, cause)
}
