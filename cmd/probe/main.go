package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"stocklens-api/internal/cli"
	"stocklens-api/internal/config"
	"stocklens-api/pkg/market"
	_ "stocklens-api/pkg/market/exchanges/alpaca"
	_ "stocklens-api/pkg/market/exchanges/alphavantage"
	_ "stocklens-api/pkg/market/exchanges/marketstack"
	_ "stocklens-api/pkg/market/exchanges/polygon"
	_ "stocklens-api/pkg/market/exchanges/tiingo"
	_ "stocklens-api/pkg/market/mock"
)

const (
	apiTimeout      = 15 * time.Second // Timeout for individual API calls
	shutdownTimeout = 10 * time.Second // Grace period for shutdown
	newsProbeSize   = 5
)

var (
	configFile = flag.String("f", "etc/stocklens.yaml", "the config file")
	symbolList = flag.String("symbols", "AAPL,MSFT", "comma separated symbols to probe")
	interval   = flag.Duration("interval", 5*time.Minute, "delay between probe rounds")
	once       = flag.Bool("once", false, "run a single round and exit")
)

type namedProvider struct {
	name     string
	provider market.Provider
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting provider probe...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}
	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	marketCfg := appCfg.Market.Value
	if marketCfg == nil {
		log.Fatalf("[main] Market config %q was not loaded", appCfg.Market.File)
	}
	built, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("[main] Failed to build market providers: %v", err)
	}
	providers := make([]namedProvider, 0, len(built))
	for name, p := range built {
		providers = append(providers, namedProvider{name: name, provider: p})
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].name < providers[j].name })

	symbols := parseSymbols(*symbolList)
	if len(symbols) == 0 {
		log.Fatalf("[main] No symbols to probe")
	}
	log.Printf("  - Probed Symbols: %v", symbols)
	log.Printf("  - Probe Interval: %s", *interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		probeAll(ctx, providers, symbols)
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runProbe(ctx, providers, symbols)
	}()

	log.Println("[main] Probe started. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping probe...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] Probe stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}
}

func parseSymbols(raw string) []string {
	var out []string
	for _, field := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		sym, err := market.NormalizeSymbol(field)
		if err != nil {
			continue
		}
		out = append(out, sym)
	}
	return out
}

func runProbe(ctx context.Context, providers []namedProvider, symbols []string) {
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	probeAll(ctx, providers, symbols)
	for {
		select {
		case <-ctx.Done():
			log.Println("[probe] Stopping probe loop")
			return
		case <-ticker.C:
			probeAll(ctx, providers, symbols)
		}
	}
}

func probeAll(ctx context.Context, providers []namedProvider, symbols []string) {
	for _, np := range providers {
		for _, sym := range symbols {
			if ctx.Err() != nil {
				return
			}
			probeQuote(ctx, np, sym)
			probeHistory(ctx, np, sym)
			probeNews(ctx, np, sym)
		}
	}
}

func timed[T any](parent context.Context, fn func(context.Context) (T, error)) (T, time.Duration, error) {
	ctx, cancel := context.WithTimeout(parent, apiTimeout)
	defer cancel()
	start := time.Now()
	v, err := fn(ctx)
	return v, time.Since(start), err
}

func report(tag string, elapsed time.Duration, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, market.ErrUnsupported):
		log.Printf("[%s] [SKIP] not supported, took %dms", tag, elapsed.Milliseconds())
	default:
		log.Printf("[%s] [ERROR] %v, took %dms", tag, err, elapsed.Milliseconds())
	}
	return false
}

func probeQuote(ctx context.Context, np namedProvider, sym string) {
	tag := np.name + ".quote." + sym
	q, elapsed, err := timed(ctx, func(ctx context.Context) (*market.Quote, error) {
		return np.provider.FetchQuote(ctx, sym)
	})
	if !report(tag, elapsed, err) {
		return
	}
	if verr := q.Validate(); verr != nil {
		log.Printf("[%s] [WARN] %v, took %dms", tag, verr, elapsed.Milliseconds())
		return
	}
	log.Printf("[%s] [OK] price=%.2f, change=%.2f (%.2f%%), took %dms",
		tag, q.Price, q.Change, q.ChangePercent, elapsed.Milliseconds())
}

func probeHistory(ctx context.Context, np namedProvider, sym string) {
	tag := np.name + ".history_1m." + sym
	s, elapsed, err := timed(ctx, func(ctx context.Context) (*market.HistorySeries, error) {
		return np.provider.FetchHistory(ctx, sym, market.Period1M)
	})
	if !report(tag, elapsed, err) {
		return
	}
	if verr := s.Validate(); verr != nil {
		log.Printf("[%s] [WARN] %v, took %dms", tag, verr, elapsed.Milliseconds())
		return
	}
	last := s.Points[len(s.Points)-1]
	log.Printf("[%s] [OK] %d points, last=%s %.2f, took %dms",
		tag, len(s.Points), last.Date.Format(time.DateOnly), last.Close, elapsed.Milliseconds())
}

func probeNews(ctx context.Context, np namedProvider, sym string) {
	tag := np.name + ".news." + sym
	items, elapsed, err := timed(ctx, func(ctx context.Context) ([]market.NewsItem, error) {
		return np.provider.FetchNews(ctx, sym, newsProbeSize)
	})
	if !report(tag, elapsed, err) {
		return
	}
	log.Printf("[%s] [OK] %d articles, took %dms", tag, len(items), elapsed.Milliseconds())
}
