package acquire

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moming2k/marketdata/internal/model"
)

type fakeProvider struct {
	bars    []model.PriceBar
	snaps   []model.MetricsSnapshot
	news    []model.NewsArticle
	trades  []model.InsiderTrade
	fail    map[string]error // kind -> error
	calls   []string
	slowBy  time.Duration
	lastCtx context.Context
}

func (p *fakeProvider) check(ctx context.Context, kind string) error {
	p.calls = append(p.calls, kind)
	p.lastCtx = ctx
	if p.slowBy > 0 {
		select {
		case <-time.After(p.slowBy):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := p.fail[kind]; err != nil {
		return err
	}
	return ctx.Err()
}

func (p *fakeProvider) Prices(ctx context.Context, _ string, _, _ time.Time) ([]model.PriceBar, error) {
	if err := p.check(ctx, "prices"); err != nil {
		return nil, err
	}
	return p.bars, nil
}

func (p *fakeProvider) Metrics(ctx context.Context, _ string, _ time.Time) ([]model.MetricsSnapshot, error) {
	if err := p.check(ctx, "metrics"); err != nil {
		return nil, err
	}
	return p.snaps, nil
}

func (p *fakeProvider) News(ctx context.Context, _ string, _, _ time.Time) ([]model.NewsArticle, error) {
	if err := p.check(ctx, "news"); err != nil {
		return nil, err
	}
	return p.news, nil
}

func (p *fakeProvider) InsiderTrades(ctx context.Context, _ string, _, _ time.Time) ([]model.InsiderTrade, error) {
	if err := p.check(ctx, "insider"); err != nil {
		return nil, err
	}
	return p.trades, nil
}

func (p *fakeProvider) Name() string { return "fake" }

type countingReconciler struct {
	forceSeen bool
}

func (r *countingReconciler) Prices(_ context.Context, _ string, bars []model.PriceBar, force bool) (int, error) {
	r.forceSeen = force
	return len(bars), nil
}

func (r *countingReconciler) Metrics(_ context.Context, _ string, snaps []model.MetricsSnapshot, _ bool) (int, error) {
	return len(snaps), nil
}

func (r *countingReconciler) News(_ context.Context, _ string, articles []model.NewsArticle, _ bool) (int, error) {
	return len(articles), nil
}

func (r *countingReconciler) InsiderTrades(_ context.Context, _ string, trades []model.InsiderTrade, _ bool) (int, error) {
	return len(trades), nil
}

func allKinds() Options {
	return Options{
		Start:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Prices:        true,
		Metrics:       true,
		News:          true,
		InsiderTrades: true,
	}
}

func TestAcquireAllKinds(t *testing.T) {
	p := &fakeProvider{
		bars:   make([]model.PriceBar, 5),
		snaps:  make([]model.MetricsSnapshot, 2),
		news:   make([]model.NewsArticle, 3),
		trades: make([]model.InsiderTrade, 1),
	}
	a := New(p, &countingReconciler{}, nil)

	counts, err := a.Acquire(context.Background(), "AAPL", allKinds())
	require.NoError(t, err)
	assert.Equal(t, Counts{Prices: 5, Metrics: 2, News: 3, InsiderTrades: 1}, counts)
	assert.Equal(t, []string{"prices", "metrics", "news", "insider"}, p.calls)
}

func TestAcquireFirstErrorAbortsRemainingKinds(t *testing.T) {
	p := &fakeProvider{
		bars: make([]model.PriceBar, 5),
		fail: map[string]error{"metrics": errors.New("upstream 500")},
	}
	a := New(p, &countingReconciler{}, nil)

	counts, err := a.Acquire(context.Background(), "AAPL", allKinds())
	require.Error(t, err)
	assert.Equal(t, 5, counts.Prices)
	assert.Zero(t, counts.News)
	assert.Equal(t, []string{"prices", "metrics"}, p.calls)
}

func TestAcquireEmptyProviderDataSucceedsWithZeroCounts(t *testing.T) {
	a := New(&fakeProvider{}, &countingReconciler{}, nil)

	counts, err := a.Acquire(context.Background(), "OBSCURE", allKinds())
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}

func TestAcquireDisabledKindsAreSkipped(t *testing.T) {
	p := &fakeProvider{bars: make([]model.PriceBar, 2)}
	a := New(p, &countingReconciler{}, nil)

	opts := allKinds()
	opts.Metrics = false
	opts.News = false
	opts.InsiderTrades = false

	counts, err := a.Acquire(context.Background(), "AAPL", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"prices"}, p.calls)
	assert.Equal(t, 2, counts.Prices)
}

func TestAcquireTimeoutCancelsAttempt(t *testing.T) {
	p := &fakeProvider{slowBy: 200 * time.Millisecond}
	a := New(p, &countingReconciler{}, nil)

	opts := allKinds()
	opts.Timeout = 20 * time.Millisecond

	_, err := a.Acquire(context.Background(), "AAPL", opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireForceRefreshReachesReconciler(t *testing.T) {
	r := &countingReconciler{}
	a := New(&fakeProvider{bars: make([]model.PriceBar, 1)}, r, nil)

	opts := allKinds()
	opts.ForceRefresh = true

	_, err := a.Acquire(context.Background(), "AAPL", opts)
	require.NoError(t, err)
	assert.True(t, r.forceSeen)
}

func TestOptionsKinds(t *testing.T) {
	assert.Equal(t, 4, allKinds().Kinds())
	assert.Zero(t, Options{}.Kinds())

	only := Options{Prices: true}
	assert.Equal(t, 1, only.Kinds())
}
