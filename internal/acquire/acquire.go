package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moming2k/marketdata/internal/model"
	"github.com/moming2k/marketdata/internal/provider"
)

// Reconciler decides which fetched rows are written. *reconcile.Engine
// satisfies it.
type Reconciler interface {
	Prices(ctx context.Context, ticker string, bars []model.PriceBar, force bool) (int, error)
	Metrics(ctx context.Context, ticker string, snaps []model.MetricsSnapshot, force bool) (int, error)
	News(ctx context.Context, ticker string, articles []model.NewsArticle, force bool) (int, error)
	InsiderTrades(ctx context.Context, ticker string, trades []model.InsiderTrade, force bool) (int, error)
}

// Options selects the date range and entity kinds for an attempt.
type Options struct {
	Start time.Time
	End   time.Time

	Prices        bool
	Metrics       bool
	News          bool
	InsiderTrades bool

	ForceRefresh bool

	// Timeout bounds a single ticker attempt. Zero means no deadline beyond
	// the caller's context.
	Timeout time.Duration
}

// Kinds reports how many entity kinds are enabled.
func (o Options) Kinds() int {
	n := 0
	for _, on := range []bool{o.Prices, o.Metrics, o.News, o.InsiderTrades} {
		if on {
			n++
		}
	}
	return n
}

// Counts is the per-entity rows-written tally for one ticker attempt. Zero
// counts are valid: a ticker with nothing new still succeeds.
type Counts struct {
	Prices        int
	Metrics       int
	News          int
	InsiderTrades int
}

// Total sums the per-entity counts.
func (c Counts) Total() int {
	return c.Prices + c.Metrics + c.News + c.InsiderTrades
}

// TickerAcquirer fetches and persists all enabled entity kinds for single
// tickers.
type TickerAcquirer struct {
	provider  provider.Provider
	reconcile Reconciler
	logger    *slog.Logger
}

// New creates a TickerAcquirer. A nil logger falls back to slog.Default.
func New(p provider.Provider, r Reconciler, logger *slog.Logger) *TickerAcquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickerAcquirer{provider: p, reconcile: r, logger: logger}
}

// Acquire runs one attempt for ticker. On error the returned Counts reflect
// the kinds that completed before the failure.
func (a *TickerAcquirer) Acquire(ctx context.Context, ticker string, opts Options) (Counts, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var counts Counts
	started := time.Now()

	if opts.Prices {
		bars, err := a.provider.Prices(ctx, ticker, opts.Start, opts.End)
		if err != nil {
			return counts, fmt.Errorf("fetch prices: %w", err)
		}
		n, err := a.reconcile.Prices(ctx, ticker, bars, opts.ForceRefresh)
		if err != nil {
			return counts, fmt.Errorf("store prices: %w", err)
		}
		counts.Prices = n
	}

	if opts.Metrics {
		snaps, err := a.provider.Metrics(ctx, ticker, opts.End)
		if err != nil {
			return counts, fmt.Errorf("fetch metrics: %w", err)
		}
		n, err := a.reconcile.Metrics(ctx, ticker, snaps, opts.ForceRefresh)
		if err != nil {
			return counts, fmt.Errorf("store metrics: %w", err)
		}
		counts.Metrics = n
	}

	if opts.News {
		articles, err := a.provider.News(ctx, ticker, opts.Start, opts.End)
		if err != nil {
			return counts, fmt.Errorf("fetch news: %w", err)
		}
		n, err := a.reconcile.News(ctx, ticker, articles, opts.ForceRefresh)
		if err != nil {
			return counts, fmt.Errorf("store news: %w", err)
		}
		counts.News = n
	}

	if opts.InsiderTrades {
		trades, err := a.provider.InsiderTrades(ctx, ticker, opts.Start, opts.End)
		if err != nil {
			return counts, fmt.Errorf("fetch insider trades: %w", err)
		}
		n, err := a.reconcile.InsiderTrades(ctx, ticker, trades, opts.ForceRefresh)
		if err != nil {
			return counts, fmt.Errorf("store insider trades: %w", err)
		}
		counts.InsiderTrades = n
	}

	a.logger.Info("ticker acquired",
		"ticker", ticker,
		"rows", counts.Total(),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return counts, nil
}
