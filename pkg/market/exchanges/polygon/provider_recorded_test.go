package polygon

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/cassette"
	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens-api/pkg/market/exchanges/restclient"
)

// Replays a recorded previous-close call. Skips when the cassette is absent and
// RECORD_CASSETTES != 1. Recording needs POLYGON_API_KEY.
func TestProvider_FetchQuote_Recorded(t *testing.T) {
	cassettePath := filepath.Join("testdata", "cassettes", "polygon_prev_aapl")
	if _, err := os.Stat(cassettePath + ".yaml"); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassettePath)
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(cassettePath), 0o755))
	}

	r, err := recorder.New(cassettePath)
	require.NoError(t, err)
	defer func() { _ = r.Stop() }()
	// keep the key out of the cassette
	r.AddFilter(func(i *cassette.Interaction) error {
		i.Request.URL = stripAPIKey(i.Request.URL)
		return nil
	})
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && stripAPIKey(req.URL.String()) == i.URL
	})

	provider := NewProvider("polygon", os.Getenv("POLYGON_API_KEY"),
		WithClientOptions(restclient.WithHTTPClient(&http.Client{Transport: r})),
	)
	q, err := provider.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Greater(t, q.Price, 0.0)
	assert.NoError(t, q.Validate())
}

func stripAPIKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Del("apiKey")
	u.RawQuery = q.Encode()
	return u.String()
}
