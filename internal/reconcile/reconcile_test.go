package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moming2k/marketdata/internal/model"
)

// fakeStore keeps everything in maps keyed the same way the real store keys
// its unique indexes.
type fakeStore struct {
	prices  map[string]model.PriceBar
	metrics map[string]model.MetricsSnapshot
	news    map[string]model.NewsArticle
	trades  map[string]model.InsiderTrade

	priceUpserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		prices:  make(map[string]model.PriceBar),
		metrics: make(map[string]model.MetricsSnapshot),
		news:    make(map[string]model.NewsArticle),
		trades:  make(map[string]model.InsiderTrade),
	}
}

func (f *fakeStore) ExistingPriceDates(_ context.Context, ticker string, start, end time.Time) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, b := range f.prices {
		if b.Ticker == ticker && !b.Date.Before(start) && !b.Date.After(end) {
			out[model.FormatDate(b.Date)] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertPrices(_ context.Context, bars []model.PriceBar) (int, error) {
	f.priceUpserts++
	for _, b := range bars {
		f.prices[b.Ticker+"|"+model.FormatDate(b.Date)] = b
	}
	return len(bars), nil
}

func (f *fakeStore) ExistingMetricsKeys(_ context.Context, ticker string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for k, m := range f.metrics {
		if m.Ticker == ticker {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertMetrics(_ context.Context, snaps []model.MetricsSnapshot) (int, error) {
	for _, m := range snaps {
		f.metrics[m.Key().String()] = m
	}
	return len(snaps), nil
}

func (f *fakeStore) ExistingNewsURLs(_ context.Context, urls []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, u := range urls {
		if _, ok := f.news[u]; ok {
			out[u] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertNews(_ context.Context, articles []model.NewsArticle) (int, error) {
	for _, a := range articles {
		f.news[a.URL] = a
	}
	return len(articles), nil
}

func (f *fakeStore) ExistingInsiderKeys(_ context.Context, ticker string, start, end time.Time) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for k, t := range f.trades {
		if t.Ticker == ticker && !t.FilingDate.Before(start) && !t.FilingDate.After(end) {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertInsiderTrades(_ context.Context, trades []model.InsiderTrade) (int, error) {
	for _, t := range trades {
		f.trades[t.Key().String()] = t
	}
	return len(trades), nil
}

func newTestEngine(f *fakeStore) *Engine {
	return New(f, f, f, f, nil)
}

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func bar(ticker, date string, close float64) model.PriceBar {
	return model.PriceBar{
		Ticker: ticker,
		Date:   day(date),
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 1000,
		Source: "test",
	}
}

func TestPricesWritesOnlyMissingDays(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	seed := []model.PriceBar{bar("AAPL", "2024-01-02", 185), bar("AAPL", "2024-01-03", 186)}
	_, err := e.Prices(ctx, "AAPL", seed, false)
	require.NoError(t, err)

	fetched := []model.PriceBar{
		bar("AAPL", "2024-01-02", 185),
		bar("AAPL", "2024-01-03", 186),
		bar("AAPL", "2024-01-04", 187),
	}
	n, err := e.Prices(ctx, "AAPL", fetched, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.prices, 3)
}

func TestPricesIdempotentSecondRun(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	fetched := []model.PriceBar{bar("MSFT", "2024-01-02", 370), bar("MSFT", "2024-01-03", 372)}

	n, err := e.Prices(ctx, "MSFT", fetched, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = e.Prices(ctx, "MSFT", fetched, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.prices, 2)
}

func TestPricesForceRefreshRewritesAll(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	stale := bar("NVDA", "2024-01-02", 480)
	_, err := e.Prices(ctx, "NVDA", []model.PriceBar{stale}, false)
	require.NoError(t, err)

	corrected := stale
	corrected.Close = 485
	n, err := e.Prices(ctx, "NVDA", []model.PriceBar{corrected}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 485.0, f.prices["NVDA|2024-01-02"].Close)
}

func TestPricesEmptyFetchIsNotAnError(t *testing.T) {
	e := newTestEngine(newFakeStore())

	n, err := e.Prices(context.Background(), "AAPL", nil, false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMetricsSkipsExistingKeys(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	pe := 28.5
	snap := model.MetricsSnapshot{
		Ticker:               "AAPL",
		ReportPeriod:         day("2023-12-30"),
		Period:               model.PeriodTTM,
		Currency:             "USD",
		PriceToEarningsRatio: &pe,
		Source:               "test",
	}
	_, err := e.Metrics(ctx, "AAPL", []model.MetricsSnapshot{snap}, false)
	require.NoError(t, err)

	other := snap
	other.ReportPeriod = day("2024-03-30")
	n, err := e.Metrics(ctx, "AAPL", []model.MetricsSnapshot{snap, other}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.metrics, 2)
}

func TestMetricsForceRefreshOverwrites(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	old := 10.0
	snap := model.MetricsSnapshot{
		Ticker:               "AAPL",
		ReportPeriod:         day("2023-12-30"),
		Period:               model.PeriodTTM,
		PriceToEarningsRatio: &old,
	}
	_, err := e.Metrics(ctx, "AAPL", []model.MetricsSnapshot{snap}, false)
	require.NoError(t, err)

	revised := 12.0
	snap.PriceToEarningsRatio = &revised
	n, err := e.Metrics(ctx, "AAPL", []model.MetricsSnapshot{snap}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 12.0, *f.metrics[snap.Key().String()].PriceToEarningsRatio)
}

func TestNewsURLIsTheKey(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	a := model.NewsArticle{
		Ticker: "AAPL",
		Title:  "Apple announces results",
		Date:   day("2024-01-25"),
		URL:    "https://example.com/apple-results",
	}
	n, err := e.News(ctx, "AAPL", []model.NewsArticle{a}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Same URL resurfacing with a tweaked headline is still the same article.
	dup := a
	dup.Title = "Apple announces quarterly results"
	n, err = e.News(ctx, "AAPL", []model.NewsArticle{dup}, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "Apple announces results", f.news[a.URL].Title)
}

func TestInsiderTradesNilTransactionDateCollides(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	trade := model.InsiderTrade{
		Ticker:     "AAPL",
		Name:       "Jane Roe",
		FilingDate: day("2024-02-01"),
	}
	n, err := e.InsiderTrades(ctx, "AAPL", []model.InsiderTrade{trade}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Refiled without a transaction date: same key, skipped.
	n, err = e.InsiderTrades(ctx, "AAPL", []model.InsiderTrade{trade}, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.trades, 1)
}

func TestInsiderTradesDistinctTransactionDates(t *testing.T) {
	f := newFakeStore()
	e := newTestEngine(f)
	ctx := context.Background()

	d1, d2 := day("2024-01-29"), day("2024-01-30")
	base := model.InsiderTrade{Ticker: "AAPL", Name: "Jane Roe", FilingDate: day("2024-02-01")}
	t1, t2 := base, base
	t1.TransactionDate = &d1
	t2.TransactionDate = &d2

	n, err := e.InsiderTrades(ctx, "AAPL", []model.InsiderTrade{t1, t2}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.trades, 2)
}
