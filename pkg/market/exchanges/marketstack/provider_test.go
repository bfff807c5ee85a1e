package marketstack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens-api/pkg/market"
	"stocklens-api/pkg/market/exchanges/restclient"
)

var testNow = time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

func newMockMarketstack(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *Provider) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ms-key", r.URL.Query().Get("access_key"))
		handler(w, r)
	}))
	provider := NewProvider("marketstack", "ms-key",
		WithClock(func() time.Time { return testNow }),
		WithClientOptions(restclient.WithBaseURL(server.URL), restclient.WithBackoff(time.Millisecond)),
	)
	return server, provider
}

func TestFetchQuote(t *testing.T) {
	server, provider := newMockMarketstack(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/eod/latest":
			assert.Equal(t, "MSFT", r.URL.Query().Get("symbols"))
			_, _ = w.Write([]byte(`{"data":[{"open":148,"high":151,"low":147,"close":150,"volume":1000000,"symbol":"MSFT","date":"2024-03-15T00:00:00+0000"}]}`))
		case "/v1/tickers/MSFT":
			_, _ = w.Write([]byte(`{"name":"Microsoft Corp","symbol":"MSFT"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	q, err := provider.FetchQuote(context.Background(), "msft")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Corp", q.Name)
	assert.Equal(t, 2.0, q.Change)
	require.NoError(t, q.Validate())
}

func TestFetchQuoteNoData(t *testing.T) {
	server, provider := newMockMarketstack(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	defer server.Close()

	_, err := provider.FetchQuote(context.Background(), "NONE")
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestFetchQuoteBodyError(t *testing.T) {
	server, provider := newMockMarketstack(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"usage_limit_reached","message":"limit reached"}}`))
	})
	defer server.Close()

	_, err := provider.FetchQuote(context.Background(), "MSFT")
	assert.ErrorIs(t, err, market.ErrUpstream)
}

func TestFetchHistoryIntraday(t *testing.T) {
	var got url.Values
	var path string
	server, provider := newMockMarketstack(t, func(w http.ResponseWriter, r *http.Request) {
		got, path = r.URL.Query(), r.URL.Path
		_, _ = w.Write([]byte(`{"data":[
			{"close":0,"last":101.5,"date":"2024-03-15T15:00:00+0000"},
			{"close":0,"last":101.0,"date":"2024-03-15T14:00:00+0000"}
		]}`))
	})
	defer server.Close()

	s, err := provider.FetchHistory(context.Background(), "MSFT", market.Period1W)
	require.NoError(t, err)
	assert.Equal(t, "/v1/intraday", path)
	assert.Equal(t, "1hour", got.Get("interval"))
	assert.Equal(t, "2024-03-08", got.Get("date_from"))
	require.Len(t, s.Points, 2)
	assert.Equal(t, 101.0, s.Points[0].Close)
	assert.Equal(t, 101.5, s.Points[1].Close)
}

func TestFetchHistoryFiveYearsIsWeekly(t *testing.T) {
	server, provider := newMockMarketstack(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/eod", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[
			{"close":1,"date":"2024-03-04T00:00:00+0000"},
			{"close":2,"date":"2024-03-08T00:00:00+0000"},
			{"close":3,"date":"2024-03-11T00:00:00+0000"},
			{"close":4,"date":"2024-03-15T00:00:00+0000"}
		]}`))
	})
	defer server.Close()

	s, err := provider.FetchHistory(context.Background(), "MSFT", market.Period5Y)
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
	assert.Equal(t, 2.0, s.Points[0].Close)
	assert.Equal(t, 4.0, s.Points[1].Close)
}

func TestFetchNewsUnsupported(t *testing.T) {
	provider := NewProvider("marketstack", "k")
	_, err := provider.FetchNews(context.Background(), "MSFT", 5)
	assert.ErrorIs(t, err, market.ErrUnsupported)
}
