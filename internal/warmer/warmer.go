// Package warmer keeps a watchlist fresh by scheduling resolver refreshes on a cron schedule.
package warmer

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/logx"

	"stocklens-api/internal/config"
	"stocklens-api/internal/freshness"
	"stocklens-api/pkg/market"
)

// Refresher schedules a background refresh of one entry.
type Refresher interface {
	Refresh(ctx context.Context, kind freshness.Kind, symbol string, period market.Period) (bool, error)
}

type target struct {
	kind   freshness.Kind
	symbol string
	period market.Period
}

// Warmer refreshes every watchlist entry on each tick.
type Warmer struct {
	cron      *cron.Cron
	refresher Refresher
	targets   []target
	ctx       context.Context
}

// New parses the schedule and the watchlist. The context bounds every tick.
func New(ctx context.Context, cfg config.WarmerConf, refresher Refresher) (*Warmer, error) {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = config.DefaultWarmerSchedule
	}
	var periods []market.Period
	for _, raw := range cfg.Periods {
		p, err := market.ParsePeriod(raw)
		if err != nil {
			return nil, fmt.Errorf("warmer: %w", err)
		}
		periods = append(periods, p)
	}
	w := &Warmer{
		cron:      cron.New(cron.WithSeconds()),
		refresher: refresher,
		ctx:       ctx,
	}
	for _, raw := range cfg.Symbols {
		sym, err := market.NormalizeSymbol(raw)
		if err != nil {
			return nil, fmt.Errorf("warmer: %w", err)
		}
		w.targets = append(w.targets, target{kind: freshness.KindQuote, symbol: sym})
		for _, p := range periods {
			w.targets = append(w.targets, target{kind: freshness.KindHistory, symbol: sym, period: p})
		}
	}
	if _, err := w.cron.AddFunc(schedule, func() { w.RunOnce(w.ctx) }); err != nil {
		return nil, fmt.Errorf("warmer: schedule %q: %w", schedule, err)
	}
	return w, nil
}

// RunOnce schedules a refresh for every target and returns how many were started.
// Entries already refreshing are skipped.
func (w *Warmer) RunOnce(ctx context.Context) int {
	started := 0
	for _, t := range w.targets {
		ok, err := w.refresher.Refresh(ctx, t.kind, t.symbol, t.period)
		if err != nil {
			logx.WithContext(ctx).Errorf("warmer: refresh %s %s %s: %v", t.kind, t.symbol, t.period, err)
			continue
		}
		if ok {
			started++
		}
	}
	logx.WithContext(ctx).Infof("warmer: scheduled %d of %d refreshes", started, len(w.targets))
	return started
}

// Start begins running the schedule in the background.
func (w *Warmer) Start() {
	w.cron.Start()
	logx.Infof("warmer: started with %d targets", len(w.targets))
}

// Stop halts the schedule and waits for a running tick to return.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
	logx.Info("warmer: stopped")
}
