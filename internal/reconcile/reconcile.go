package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moming2k/marketdata/internal/model"
)

// PriceStore is the slice of the store the price path needs.
type PriceStore interface {
	ExistingPriceDates(ctx context.Context, ticker string, start, end time.Time) (map[string]struct{}, error)
	UpsertPrices(ctx context.Context, bars []model.PriceBar) (int, error)
}

// MetricsStore is the slice of the store the metrics path needs.
type MetricsStore interface {
	ExistingMetricsKeys(ctx context.Context, ticker string) (map[string]struct{}, error)
	UpsertMetrics(ctx context.Context, snaps []model.MetricsSnapshot) (int, error)
}

// NewsStore is the slice of the store the news path needs.
type NewsStore interface {
	ExistingNewsURLs(ctx context.Context, urls []string) (map[string]struct{}, error)
	UpsertNews(ctx context.Context, articles []model.NewsArticle) (int, error)
}

// InsiderStore is the slice of the store the insider-trade path needs.
type InsiderStore interface {
	ExistingInsiderKeys(ctx context.Context, ticker string, start, end time.Time) (map[string]struct{}, error)
	UpsertInsiderTrades(ctx context.Context, trades []model.InsiderTrade) (int, error)
}

// Engine reconciles fetched rows against stored state. A *store.Store
// satisfies all four interfaces; tests substitute fakes.
type Engine struct {
	prices  PriceStore
	metrics MetricsStore
	news    NewsStore
	insider InsiderStore
	logger  *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default.
func New(prices PriceStore, metrics MetricsStore, news NewsStore, insider InsiderStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		prices:  prices,
		metrics: metrics,
		news:    news,
		insider: insider,
		logger:  logger,
	}
}

// Prices writes the fetched bars that are not yet stored, diffing per
// calendar day. With force every fetched bar is upserted. Returns the number
// of rows written.
func (e *Engine) Prices(ctx context.Context, ticker string, bars []model.PriceBar, force bool) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	toWrite := bars
	if !force {
		start, end := dateSpan(bars)
		existing, err := e.prices.ExistingPriceDates(ctx, ticker, start, end)
		if err != nil {
			return 0, fmt.Errorf("existing price dates for %s: %w", ticker, err)
		}
		toWrite = toWrite[:0:0]
		for _, b := range bars {
			if _, ok := existing[model.FormatDate(b.Date)]; ok {
				continue
			}
			toWrite = append(toWrite, b)
		}
		e.logger.Debug("price diff",
			"ticker", ticker,
			"fetched", len(bars),
			"missing", len(toWrite))
	}

	n, err := e.prices.UpsertPrices(ctx, toWrite)
	if err != nil {
		return 0, fmt.Errorf("upsert prices for %s: %w", ticker, err)
	}
	return n, nil
}

// Metrics writes the fetched snapshots whose key is not yet stored. With
// force every snapshot is upserted, overwriting all ratio columns.
func (e *Engine) Metrics(ctx context.Context, ticker string, snaps []model.MetricsSnapshot, force bool) (int, error) {
	if len(snaps) == 0 {
		return 0, nil
	}

	toWrite := snaps
	if !force {
		existing, err := e.metrics.ExistingMetricsKeys(ctx, ticker)
		if err != nil {
			return 0, fmt.Errorf("existing metrics keys for %s: %w", ticker, err)
		}
		toWrite = toWrite[:0:0]
		for _, m := range snaps {
			if _, ok := existing[m.Key().String()]; ok {
				continue
			}
			toWrite = append(toWrite, m)
		}
	}

	n, err := e.metrics.UpsertMetrics(ctx, toWrite)
	if err != nil {
		return 0, fmt.Errorf("upsert metrics for %s: %w", ticker, err)
	}
	return n, nil
}

// News writes the fetched articles whose URL is not yet stored. The URL is
// the immutable key; with force the remaining columns are overwritten.
func (e *Engine) News(ctx context.Context, ticker string, articles []model.NewsArticle, force bool) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	toWrite := articles
	if !force {
		urls := make([]string, 0, len(articles))
		for _, a := range articles {
			urls = append(urls, a.URL)
		}
		existing, err := e.news.ExistingNewsURLs(ctx, urls)
		if err != nil {
			return 0, fmt.Errorf("existing news urls for %s: %w", ticker, err)
		}
		toWrite = toWrite[:0:0]
		for _, a := range articles {
			if _, ok := existing[a.URL]; ok {
				continue
			}
			toWrite = append(toWrite, a)
		}
	}

	n, err := e.news.UpsertNews(ctx, toWrite)
	if err != nil {
		return 0, fmt.Errorf("upsert news for %s: %w", ticker, err)
	}
	return n, nil
}

// InsiderTrades writes the fetched trades whose composite key is not yet
// stored.
func (e *Engine) InsiderTrades(ctx context.Context, ticker string, trades []model.InsiderTrade, force bool) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	toWrite := trades
	if !force {
		start, end := filingSpan(trades)
		existing, err := e.insider.ExistingInsiderKeys(ctx, ticker, start, end)
		if err != nil {
			return 0, fmt.Errorf("existing insider keys for %s: %w", ticker, err)
		}
		toWrite = toWrite[:0:0]
		for _, t := range trades {
			if _, ok := existing[t.Key().String()]; ok {
				continue
			}
			toWrite = append(toWrite, t)
		}
	}

	n, err := e.insider.UpsertInsiderTrades(ctx, toWrite)
	if err != nil {
		return 0, fmt.Errorf("upsert insider trades for %s: %w", ticker, err)
	}
	return n, nil
}

func dateSpan(bars []model.PriceBar) (time.Time, time.Time) {
	start, end := bars[0].Date, bars[0].Date
	for _, b := range bars[1:] {
		if b.Date.Before(start) {
			start = b.Date
		}
		if b.Date.After(end) {
			end = b.Date
		}
	}
	return start, end
}

func filingSpan(trades []model.InsiderTrade) (time.Time, time.Time) {
	start, end := trades[0].FilingDate, trades[0].FilingDate
	for _, t := range trades[1:] {
		if t.FilingDate.Before(start) {
			start = t.FilingDate
		}
		if t.FilingDate.After(end) {
			end = t.FilingDate
		}
	}
	return start, end
}
