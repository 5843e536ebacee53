package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moming2k/marketdata/internal/acquire"
	"github.com/moming2k/marketdata/internal/config"
)

type fakeAcquirer struct {
	mu      sync.Mutex
	fail    map[string]error
	panics  map[string]bool
	cancel  map[string]context.CancelFunc // cancel the run while handling this ticker
	slowBy  time.Duration
	visited []string
}

func (f *fakeAcquirer) Acquire(ctx context.Context, ticker string, _ acquire.Options) (acquire.Counts, error) {
	f.mu.Lock()
	f.visited = append(f.visited, ticker)
	cancel := f.cancel[ticker]
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if f.panics[ticker] {
		panic("provider blew up")
	}
	if f.slowBy > 0 {
		select {
		case <-time.After(f.slowBy):
		case <-ctx.Done():
			return acquire.Counts{}, ctx.Err()
		}
	}
	if err := f.fail[ticker]; err != nil {
		return acquire.Counts{}, err
	}
	return acquire.Counts{Prices: 1}, ctx.Err()
}

type fakeTracker struct {
	mu      sync.Mutex
	marked  []string
	markErr map[string]error
}

func (f *fakeTracker) MarkComplete(ticker string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.markErr[ticker]; err != nil {
		return err
	}
	f.marked = append(f.marked, ticker)
	return nil
}

func (f *fakeTracker) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked...)
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{BatchSize: 2, Concurrency: 1}
}

func TestRunChecksEveryTicker(t *testing.T) {
	a := &fakeAcquirer{}
	tr := &fakeTracker{}
	s := New(a, tr, testConfig(), nil)

	tickers := []string{"AAPL", "MSFT", "NVDA", "GOOG", "AMZN"}
	summary, err := s.Run(context.Background(), tickers, acquire.Options{Prices: true})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Len(t, summary.Batches, 3)
	assert.ElementsMatch(t, tickers, tr.marked)
	assert.NotEmpty(t, summary.RunID)
}

func TestRunIsolatesFailures(t *testing.T) {
	a := &fakeAcquirer{fail: map[string]error{"MSFT": errors.New("upstream 500")}}
	tr := &fakeTracker{}
	s := New(a, tr, testConfig(), nil)

	summary, err := s.Run(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, acquire.Options{Prices: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"MSFT"}, summary.FailedTickers)
	assert.ElementsMatch(t, []string{"AAPL", "NVDA"}, tr.marked)

	require.Len(t, summary.Batches, 2)
	assert.Equal(t, []string{"MSFT"}, summary.Batches[0].FailedTickers)
	assert.Empty(t, summary.Batches[1].FailedTickers)
}

func TestRunRecoversTickerPanic(t *testing.T) {
	a := &fakeAcquirer{panics: map[string]bool{"MSFT": true}}
	tr := &fakeTracker{}
	s := New(a, tr, testConfig(), nil)

	summary, err := s.Run(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, acquire.Options{Prices: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"MSFT"}, summary.FailedTickers)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestRunCancellationPreservesCheckpoints(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeAcquirer{cancel: map[string]context.CancelFunc{"MSFT": cancel}}
	tr := &fakeTracker{}
	s := New(a, tr, testConfig(), nil)

	tickers := []string{"AAPL", "MSFT", "NVDA", "GOOG"}
	summary, err := s.Run(ctx, tickers, acquire.Options{Prices: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// The first batch ran before cancellation took effect; NVDA and GOOG
	// were never attempted and are reported failed.
	assert.Contains(t, tr.marked, "AAPL")
	assert.NotContains(t, a.visited, "NVDA")
	assert.NotContains(t, a.visited, "GOOG")
	assert.Contains(t, summary.FailedTickers, "NVDA")
	assert.Contains(t, summary.FailedTickers, "GOOG")
}

func TestRunCheckpointFailureMarksTickerFailed(t *testing.T) {
	a := &fakeAcquirer{}
	tr := &fakeTracker{markErr: map[string]error{"AAPL": errors.New("disk full")}}
	s := New(a, tr, testConfig(), nil)

	summary, err := s.Run(context.Background(), []string{"AAPL", "MSFT"}, acquire.Options{Prices: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, summary.FailedTickers)
	assert.Equal(t, 1, summary.Succeeded)
}

// trackerObservingAcquirer records what the tracker held when each ticker
// started, so tests can pin down checkpoint timing.
type trackerObservingAcquirer struct {
	tracker *fakeTracker

	mu            sync.Mutex
	markedAtStart map[string][]string
}

func (a *trackerObservingAcquirer) Acquire(ctx context.Context, ticker string, _ acquire.Options) (acquire.Counts, error) {
	a.mu.Lock()
	if a.markedAtStart == nil {
		a.markedAtStart = make(map[string][]string)
	}
	a.markedAtStart[ticker] = a.tracker.snapshot()
	a.mu.Unlock()
	return acquire.Counts{Prices: 1}, ctx.Err()
}

func TestRunCheckpointsEachTickerAsItCompletes(t *testing.T) {
	tr := &fakeTracker{}
	a := &trackerObservingAcquirer{tracker: tr}
	s := New(a, tr, testConfig(), nil)

	summary, err := s.Run(context.Background(), []string{"AAPL", "MSFT"}, acquire.Options{Prices: true})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)

	// Sequential execution (concurrency 1): AAPL's checkpoint must already
	// be durable by the time MSFT starts, not deferred to batch end.
	assert.Contains(t, a.markedAtStart["MSFT"], "AAPL")
}

func TestRunConcurrencyBoundsWorkers(t *testing.T) {
	a := &fakeAcquirer{slowBy: 30 * time.Millisecond}
	tr := &fakeTracker{}
	cfg := config.SchedulerConfig{BatchSize: 4, Concurrency: 4}
	s := New(a, tr, cfg, nil)

	started := time.Now()
	summary, err := s.Run(context.Background(), []string{"AAPL", "MSFT", "NVDA", "GOOG"}, acquire.Options{Prices: true})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Succeeded)
	// Sequential execution would take at least 120ms.
	assert.Less(t, time.Since(started), 100*time.Millisecond)
}

func TestPartition(t *testing.T) {
	tickers := []string{"A", "B", "C", "D", "E"}

	batches := partition(tickers, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"A", "B"}, batches[0])
	assert.Equal(t, []string{"E"}, batches[2])

	assert.Len(t, partition(tickers, 10), 1)
	assert.Empty(t, partition(nil, 2))

	// Degenerate size falls back to one ticker per batch.
	assert.Len(t, partition(tickers, 0), 5)
}
