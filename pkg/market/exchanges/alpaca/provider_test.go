package alpaca

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens-api/pkg/market"
)

var testNow = time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

const (
	dailyBar = `{"t":"2024-03-15T04:00:00Z","o":148,"h":151,"l":147,"c":150,"v":1000000,"n":10,"vw":149.5}`
	barsJSON = `[{"t":"2024-03-13T04:00:00Z","o":1,"h":1,"l":1,"c":171.1,"v":1},{"t":"2024-03-14T04:00:00Z","o":1,"h":1,"l":1,"c":173.0,"v":1}]`
)

// newMockAlpaca answers both the single and multi symbol endpoint shapes.
func newMockAlpaca(t *testing.T) (*httptest.Server, *Provider) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/stocks/AAPL/snapshot":
			_, _ = w.Write([]byte(`{"dailyBar":` + dailyBar + `}`))
		case "/v2/stocks/snapshots":
			_, _ = w.Write([]byte(`{"AAPL":{"dailyBar":` + dailyBar + `}}`))
		case "/v2/stocks/AAPL/bars":
			_, _ = w.Write([]byte(`{"symbol":"AAPL","bars":` + barsJSON + `,"next_page_token":null}`))
		case "/v2/stocks/bars":
			_, _ = w.Write([]byte(`{"bars":{"AAPL":` + barsJSON + `},"next_page_token":null}`))
		case "/v1beta1/news":
			_, _ = w.Write([]byte(`{"news":[
				{"id":11,"headline":"Older","author":"a","created_at":"2024-03-13T10:00:00Z","updated_at":"2024-03-13T10:00:00Z","summary":"s","url":"https://n/11","symbols":["AAPL"],"source":"benzinga"},
				{"id":12,"headline":"Newer","author":"a","created_at":"2024-03-14T10:00:00Z","updated_at":"2024-03-14T10:00:00Z","summary":"s","url":"https://n/12","symbols":["AAPL"],"source":""}
			],"next_page_token":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	provider := NewProvider("alpaca", Options{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   server.URL,
		Now:       func() time.Time { return testNow },
	})
	return server, provider
}

func TestFetchQuote(t *testing.T) {
	server, provider := newMockAlpaca(t)
	defer server.Close()

	q, err := provider.FetchQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc.", q.Name)
	assert.Equal(t, 2.0, q.Change)
	assert.Equal(t, int64(1000000), q.Volume)
	require.NoError(t, q.Validate())
}

func TestFetchHistory(t *testing.T) {
	server, provider := newMockAlpaca(t)
	defer server.Close()

	s, err := provider.FetchHistory(context.Background(), "AAPL", market.Period1M)
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
	assert.Equal(t, 173.0, s.Points[1].Close)
	require.NoError(t, s.Validate())
}

func TestFetchNewsIsNeutral(t *testing.T) {
	server, provider := newMockAlpaca(t)
	defer server.Close()

	items, err := provider.FetchNews(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "alpaca-12", items[0].ID)
	assert.Equal(t, "alpaca", items[0].Source)
	for _, item := range items {
		assert.Equal(t, market.SentimentNeutral, item.Sentiment)
		assert.Nil(t, item.Score)
	}
}

func TestCallHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := make(chan struct{})
	defer close(block)
	_, err := call(ctx, time.Second, func() (int, error) {
		<-block
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilderRequiresCredentials(t *testing.T) {
	cfg := &market.Config{
		Default:   "a",
		Providers: map[string]*market.ProviderConfig{"a": {Type: "alpaca", APIKey: "k"}},
	}
	_, err := cfg.BuildProviders()
	assert.ErrorIs(t, err, market.ErrConfiguration)
}
