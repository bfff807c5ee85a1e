package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/config"
	"stocklens-api/pkg/confkit"
	marketpkg "stocklens-api/pkg/market"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	store := "postgres"
	if cfg.UsesMemoryStore() {
		store = "in-memory (degraded: data is lost on restart)"
	}
	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Store: %s", store),
		fmt.Sprintf("Postgres: %s", presence(!cfg.UsesMemoryStore())),
		fmt.Sprintf("Redis: %s", presence(cfg.UsesRedis())),
		fmt.Sprintf("Frontend origin: %s", valueOr(cfg.FrontendOrigin, "any")),
		fmt.Sprintf("TTL (short/medium/long): %ds / %ds / %ds", cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long),
		fmt.Sprintf("Freshness (quote/history/news): %s / %s / %s, mock fallback %t",
			cfg.Freshness.QuoteMaxAge, cfg.Freshness.HistoryMaxAge, cfg.Freshness.NewsMaxAge, cfg.Freshness.MockFallback),
		fmt.Sprintf("Sentiment thresholds: article ±%.2f, overall ±%.0f",
			cfg.Sentiment.ArticlePositive, cfg.Sentiment.OverallPositive),
		warmerLine(cfg.Warmer),
		sectionLine("Market config", cfg.Market),
	}
	lines = append(lines, providerLines(cfg.Market.Value)...)
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
	if cfg != nil && cfg.UsesMemoryStore() {
		logx.Error("config • no postgres dsn configured, running on the in-memory store")
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func warmerLine(w config.WarmerConf) string {
	if !w.Enabled {
		return "Warmer: disabled"
	}
	return fmt.Sprintf("Warmer: %s symbols=%s periods=%s", w.Schedule,
		strings.Join(w.Symbols, ","), valueOr(strings.Join(w.Periods, ","), "none"))
}

func providerLines(mc *marketpkg.Config) []string {
	if mc == nil {
		return nil
	}
	names := make([]string, 0, len(mc.Providers))
	for name := range mc.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		p := mc.Providers[name]
		key := "no key"
		if p.APIKey != "" {
			key = "key set"
		}
		marker := ""
		if name == mc.Default {
			marker = " (default)"
		}
		lines = append(lines, fmt.Sprintf("Provider %s%s: type=%s, %s", name, marker, p.Type, key))
	}
	return lines
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
