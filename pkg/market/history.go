package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Period selects the look-back window of a historical series.
type Period string

const (
	Period1D Period = "1d"
	Period1W Period = "1w"
	Period1M Period = "1m"
	Period3M Period = "3m"
	Period1Y Period = "1y"
	Period5Y Period = "5y"
)

// Periods lists every supported period, shortest first.
var Periods = []Period{Period1D, Period1W, Period1M, Period3M, Period1Y, Period5Y}

// Unit is the bar size unit of a granularity.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
)

// Granularity is the bar size providers are asked for.
type Granularity struct {
	Multiplier int
	Unit       Unit
}

// Step returns the duration of one bar.
func (g Granularity) Step() time.Duration {
	var base time.Duration
	switch g.Unit {
	case UnitMinute:
		base = time.Minute
	case UnitHour:
		base = time.Hour
	case UnitDay:
		base = 24 * time.Hour
	case UnitWeek:
		base = 7 * 24 * time.Hour
	}
	return time.Duration(g.Multiplier) * base
}

// ParsePeriod validates a period string.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
}

// Span returns how far back the period reaches.
func (p Period) Span() time.Duration {
	const day = 24 * time.Hour
	switch p {
	case Period1D:
		return day
	case Period1W:
		return 7 * day
	case Period1M:
		return 30 * day
	case Period3M:
		return 90 * day
	case Period1Y:
		return 365 * day
	case Period5Y:
		return 5 * 365 * day
	default:
		return 0
	}
}

// Granularity maps the period onto a bar size.
func (p Period) Granularity() Granularity {
	switch p {
	case Period1D:
		return Granularity{Multiplier: 5, Unit: UnitMinute}
	case Period1W:
		return Granularity{Multiplier: 1, Unit: UnitHour}
	case Period5Y:
		return Granularity{Multiplier: 1, Unit: UnitWeek}
	default:
		return Granularity{Multiplier: 1, Unit: UnitDay}
	}
}

// Intraday reports whether bars are smaller than a day.
func (p Period) Intraday() bool {
	g := p.Granularity()
	return g.Unit == UnitMinute || g.Unit == UnitHour
}

// HistoryPoint is a single close in a series.
type HistoryPoint struct {
	Date  time.Time `json:"date" msgpack:"d"`
	Close float64   `json:"close" msgpack:"c"`
}

// HistorySeries is an ascending list of closes for a (symbol, period) pair.
type HistorySeries struct {
	Symbol    string         `json:"symbol"`
	Period    Period         `json:"period"`
	Points    []HistoryPoint `json:"points"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Provider  string         `json:"provider,omitempty"`
	Origin    Origin         `json:"origin,omitempty"`
}

// SortPoints orders points ascending by date.
func (s *HistorySeries) SortPoints() {
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})
}

// Validate ensures the series is non-empty and non-decreasing by date.
func (s *HistorySeries) Validate() error {
	if s == nil || len(s.Points) == 0 {
		return fmt.Errorf("history: %w", ErrNotFound)
	}
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Date.Before(s.Points[i-1].Date) {
			return fmt.Errorf("history %s/%s: point %d out of order", s.Symbol, s.Period, i)
		}
	}
	return nil
}

// Clone deep-copies the series.
func (s *HistorySeries) Clone() *HistorySeries {
	if s == nil {
		return nil
	}
	c := *s
	c.Points = append([]HistoryPoint(nil), s.Points...)
	return &c
}
