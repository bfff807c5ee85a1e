package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
)

// NamedProvider pairs a configured provider name with its implementation.
type NamedProvider struct {
	Name     string
	Provider Provider
}

// Router implements Provider by walking a per-capability chain of providers.
// A provider answering ErrNotFound ends the walk; any other failure moves on to the next one.
type Router struct {
	quote   []NamedProvider
	history []NamedProvider
	news    []NamedProvider
}

var _ Provider = (*Router)(nil)

// NewRouter constructs a router from the quote, history and news chains.
func NewRouter(quote, history, news []NamedProvider) *Router {
	return &Router{quote: quote, history: history, news: news}
}

// FetchQuote implements Provider.
func (r *Router) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	var out *Quote
	err := r.walk(ctx, "quote", r.quote, func(np NamedProvider) error {
		q, err := np.Provider.FetchQuote(ctx, symbol)
		if err != nil {
			return err
		}
		if q.Provider == "" {
			q.Provider = np.Name
		}
		out = q
		return nil
	})
	return out, err
}

// FetchHistory implements Provider.
func (r *Router) FetchHistory(ctx context.Context, symbol string, period Period) (*HistorySeries, error) {
	var out *HistorySeries
	err := r.walk(ctx, "history", r.history, func(np NamedProvider) error {
		s, err := np.Provider.FetchHistory(ctx, symbol, period)
		if err != nil {
			return err
		}
		if s.Provider == "" {
			s.Provider = np.Name
		}
		out = s
		return nil
	})
	return out, err
}

// FetchNews implements Provider.
func (r *Router) FetchNews(ctx context.Context, symbol string, limit int) ([]NewsItem, error) {
	var out []NewsItem
	err := r.walk(ctx, "news", r.news, func(np NamedProvider) error {
		items, err := np.Provider.FetchNews(ctx, symbol, limit)
		if err != nil {
			return err
		}
		out = items
		return nil
	})
	return out, err
}

// Names returns the provider names configured for each capability.
func (r *Router) Names() map[string][]string {
	names := func(chain []NamedProvider) []string {
		out := make([]string, len(chain))
		for i, np := range chain {
			out[i] = np.Name
		}
		return out
	}
	return map[string][]string{
		"quote":   names(r.quote),
		"history": names(r.history),
		"news":    names(r.news),
	}
}

func (r *Router) walk(ctx context.Context, capability string, chain []NamedProvider, call func(NamedProvider) error) error {
	if len(chain) == 0 {
		return fmt.Errorf("market router: no %s provider configured: %w", capability, ErrUnsupported)
	}
	var errs []error
	for _, np := range chain {
		err := call(np)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(append(errs, err)...)
		}
		if !errors.Is(err, ErrUnsupported) {
			logx.WithContext(ctx).Infof("market router: %s provider=%s failed, trying next: %v", capability, np.Name, err)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
