package warmer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklens-api/internal/config"
	"stocklens-api/internal/freshness"
	"stocklens-api/internal/persistence/memory"
	"stocklens-api/pkg/market"
	marketmock "stocklens-api/pkg/market/mock"
)

type call struct {
	kind   freshness.Kind
	symbol string
	period market.Period
}

type recordingRefresher struct {
	mu    sync.Mutex
	calls []call
	fail  string
}

func (r *recordingRefresher) Refresh(ctx context.Context, kind freshness.Kind, symbol string, period market.Period) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{kind, symbol, period})
	if symbol == r.fail {
		return false, errors.New("boom")
	}
	return true, nil
}

func TestRunOnceCoversWatchlist(t *testing.T) {
	rec := &recordingRefresher{}
	w, err := New(context.Background(), config.WarmerConf{
		Symbols: []string{"aapl", "MSFT"},
		Periods: []string{"1d", "1Y"},
	}, rec)
	require.NoError(t, err)

	assert.Equal(t, 6, w.RunOnce(context.Background()))
	assert.Equal(t, []call{
		{freshness.KindQuote, "AAPL", ""},
		{freshness.KindHistory, "AAPL", market.Period1D},
		{freshness.KindHistory, "AAPL", market.Period1Y},
		{freshness.KindQuote, "MSFT", ""},
		{freshness.KindHistory, "MSFT", market.Period1D},
		{freshness.KindHistory, "MSFT", market.Period1Y},
	}, rec.calls)
}

func TestRunOnceSkipsFailures(t *testing.T) {
	rec := &recordingRefresher{fail: "MSFT"}
	w, err := New(context.Background(), config.WarmerConf{Symbols: []string{"AAPL", "MSFT"}}, rec)
	require.NoError(t, err)

	assert.Equal(t, 1, w.RunOnce(context.Background()))
	assert.Len(t, rec.calls, 2)
}

func TestNewRejectsBadInput(t *testing.T) {
	rec := &recordingRefresher{}
	_, err := New(context.Background(), config.WarmerConf{Schedule: "not a cron", Symbols: []string{"AAPL"}}, rec)
	assert.Error(t, err)

	_, err = New(context.Background(), config.WarmerConf{Symbols: []string{"AAPL"}, Periods: []string{"2w"}}, rec)
	assert.ErrorIs(t, err, market.ErrInvalidPeriod)

	_, err = New(context.Background(), config.WarmerConf{Symbols: []string{" "}}, rec)
	assert.ErrorIs(t, err, market.ErrInvalidSymbol)
}

func TestRunOnceWarmsResolverStore(t *testing.T) {
	now := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	gen := marketmock.New(5, marketmock.WithClock(clock))
	store := memory.New(memory.WithClock(clock))
	resolver := freshness.NewResolver(store, marketmock.NewProvider("demo", gen),
		freshness.WithClock(clock),
		freshness.WithMockGenerator(gen),
	)
	defer resolver.Close()

	w, err := New(context.Background(), config.WarmerConf{Symbols: []string{"NVDA"}, Periods: []string{"1m"}}, resolver)
	require.NoError(t, err)
	assert.Equal(t, 2, w.RunOnce(context.Background()))
	resolver.Wait()

	q, err := store.LoadQuote(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, "demo", q.Provider)
	s, err := store.LoadHistory(context.Background(), "NVDA", market.Period1M)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Points)
}

func TestStartStop(t *testing.T) {
	w, err := New(context.Background(), config.WarmerConf{Symbols: []string{"AAPL"}}, &recordingRefresher{})
	require.NoError(t, err)
	w.Start()
	w.Stop()
}
