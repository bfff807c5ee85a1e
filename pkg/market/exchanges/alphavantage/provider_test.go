package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens-api/pkg/market"
	"stocklens-api/pkg/market/exchanges/restclient"
)

var testNow = time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)

// newMockAlphaVantage routes on the "function" query parameter.
func newMockAlphaVantage(t *testing.T, bodies map[string]string) (*httptest.Server, *Provider) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		body, ok := bodies[r.URL.Query().Get("function")]
		if !ok {
			body = `{}`
		}
		_, _ = w.Write([]byte(body))
	}))
	provider := NewProvider("av", "demo",
		WithClock(func() time.Time { return testNow }),
		WithClientOptions(restclient.WithBaseURL(server.URL), restclient.WithBackoff(time.Millisecond)),
	)
	return server, provider
}

func TestFetchQuote(t *testing.T) {
	server, provider := newMockAlphaVantage(t, map[string]string{
		"GLOBAL_QUOTE": `{"Global Quote":{"01. symbol":"IBM","02. open":"148.0000","03. high":"151.0000","04. low":"147.0000","05. price":"150.0000","06. volume":"1000000","07. latest trading day":"2024-03-15","08. previous close":"147.5","09. change":"2.5","10. change percent":"1.69%"}}`,
		"OVERVIEW":     `{"Symbol":"IBM","Name":"International Business Machines","MarketCapitalization":"175000000000","PERatio":"22.4","DividendYield":"0.0365"}`,
	})
	defer server.Close()

	q, err := provider.FetchQuote(context.Background(), "ibm")
	require.NoError(t, err)
	assert.Equal(t, "IBM", q.Symbol)
	assert.Equal(t, "International Business Machines", q.Name)
	// change is derived from open, not the provider's previous-close change
	assert.Equal(t, 2.0, q.Change)
	assert.InDelta(t, 1.35, q.ChangePercent, 0.01)
	assert.Equal(t, 175000000000.0, q.MarketCap)
	assert.Equal(t, 22.4, q.PERatio)
	assert.Equal(t, 3.65, q.DividendYield)
	assert.Equal(t, "av", q.Provider)
	require.NoError(t, q.Validate())
}

func TestFetchQuoteEmptyIsNotFound(t *testing.T) {
	server, provider := newMockAlphaVantage(t, map[string]string{
		"GLOBAL_QUOTE": `{"Global Quote":{}}`,
	})
	defer server.Close()

	_, err := provider.FetchQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestThrottleNoteIsUpstreamError(t *testing.T) {
	for _, body := range []string{
		`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
		`{"Information":"The **demo** API key is for demo purposes only."}`,
		`{"Error Message":"Invalid API call."}`,
	} {
		server, provider := newMockAlphaVantage(t, map[string]string{"GLOBAL_QUOTE": body})
		_, err := provider.FetchQuote(context.Background(), "IBM")
		assert.ErrorIs(t, err, market.ErrUpstream, body)
		server.Close()
	}
}

func TestFetchHistoryDaily(t *testing.T) {
	server, provider := newMockAlphaVantage(t, map[string]string{
		"TIME_SERIES_DAILY": `{"Meta Data":{"2. Symbol":"IBM"},"Time Series (Daily)":{
			"2024-03-15":{"1. open":"1","2. high":"1","3. low":"1","4. close":"191.07","5. volume":"1"},
			"2024-03-14":{"1. open":"1","2. high":"1","3. low":"1","4. close":"193.43","5. volume":"1"},
			"2023-12-01":{"1. open":"1","2. high":"1","3. low":"1","4. close":"160.55","5. volume":"1"}
		}}`,
	})
	defer server.Close()

	s, err := provider.FetchHistory(context.Background(), "IBM", market.Period1M)
	require.NoError(t, err)
	require.Len(t, s.Points, 2, "points older than the period span are dropped")
	assert.Equal(t, 193.43, s.Points[0].Close)
	assert.Equal(t, 191.07, s.Points[1].Close)
	require.NoError(t, s.Validate())
}

func TestFetchHistoryIntradayUsesInterval(t *testing.T) {
	var interval string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		interval = r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(`{"Time Series (5min)":{"2024-03-15 15:55:00":{"4. close":"190.1"},"2024-03-15 16:00:00":{"4. close":"190.3"}}}`))
	}))
	defer server.Close()
	provider := NewProvider("av", "k",
		WithClock(func() time.Time { return testNow }),
		WithClientOptions(restclient.WithBaseURL(server.URL)),
	)

	s, err := provider.FetchHistory(context.Background(), "IBM", market.Period1D)
	require.NoError(t, err)
	assert.Equal(t, "5min", interval)
	require.Len(t, s.Points, 2)
	assert.Equal(t, 190.3, s.Points[1].Close)
}

func TestFetchHistoryMissingSeries(t *testing.T) {
	server, provider := newMockAlphaVantage(t, nil)
	defer server.Close()

	_, err := provider.FetchHistory(context.Background(), "IBM", market.Period5Y)
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestFetchNews(t *testing.T) {
	server, provider := newMockAlphaVantage(t, map[string]string{
		"NEWS_SENTIMENT": `{"items":"2","feed":[
			{"title":"IBM beats","url":"https://n/1","time_published":"20240314T120000","summary":"s1","source":"Benzinga",
			 "topics":[{"topic":"Earnings","relevance_score":"0.99"}],"overall_sentiment_score":0.41,"overall_sentiment_label":"Bullish"},
			{"title":"IBM misses","url":"https://n/2","time_published":"20240315T090000","summary":"s2","source":"Reuters",
			 "topics":[],"overall_sentiment_score":-0.3,"overall_sentiment_label":"Somewhat-Bearish"}
		]}`,
	})
	defer server.Close()

	items, err := provider.FetchNews(context.Background(), "IBM", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "IBM misses", items[0].Title)
	assert.Equal(t, market.SentimentNegative, items[0].Sentiment)
	assert.Equal(t, market.SentimentPositive, items[1].Sentiment)
	require.NotNil(t, items[1].Score)
	assert.Equal(t, 0.41, *items[1].Score)
	assert.Equal(t, []market.Topic{{Name: "Earnings", Relevance: 0.99}}, items[1].Topics)

	again, err := provider.FetchNews(context.Background(), "IBM", 10)
	require.NoError(t, err)
	assert.Equal(t, items[0].ID, again[0].ID, "ids are stable across fetches")
}
