package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/moming2k/marketdata/internal/acquire"
	"github.com/moming2k/marketdata/internal/config"
)

// Acquirer runs one ticker attempt. *acquire.TickerAcquirer satisfies it.
type Acquirer interface {
	Acquire(ctx context.Context, ticker string, opts acquire.Options) (acquire.Counts, error)
}

// Checkpointer durably records completed tickers. *progress.Tracker
// satisfies it.
type Checkpointer interface {
	MarkComplete(ticker string) error
}

// BatchSummary describes one completed batch.
type BatchSummary struct {
	Index         int
	Tickers       []string
	Succeeded     int
	Failed        int
	FailedTickers []string
	Elapsed       time.Duration
}

// RunSummary describes a whole run.
type RunSummary struct {
	RunID         string
	Started       time.Time
	Elapsed       time.Duration
	Succeeded     int
	Failed        int
	FailedTickers []string
	Batches       []BatchSummary
}

// Scheduler batches, paces, and checkpoints ticker acquisitions.
type Scheduler struct {
	acquirer Acquirer
	tracker  Checkpointer
	cfg      config.SchedulerConfig
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New creates a Scheduler. A nil logger falls back to slog.Default.
func New(a Acquirer, t Checkpointer, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.TickersPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.TickersPerMinute)/60), 1)
	}

	return &Scheduler{
		acquirer: a,
		tracker:  t,
		cfg:      cfg,
		limiter:  limiter,
		logger:   logger,
	}
}

// Run processes tickers to completion or cancellation. Cancellation is
// honored between tickers; checkpoints already written are preserved. The
// returned summary is valid even when err is non-nil.
func (s *Scheduler) Run(ctx context.Context, tickers []string, opts acquire.Options) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	defer func() { summary.Elapsed = time.Since(summary.Started) }()

	batches := partition(tickers, s.cfg.BatchSize)
	s.logger.Info("run started",
		"run_id", summary.RunID,
		"tickers", len(tickers),
		"batches", len(batches),
		"concurrency", s.cfg.Concurrency)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			s.failRemaining(summary, batches[i:])
			return summary, fmt.Errorf("run cancelled: %w", err)
		}

		bs := s.runBatch(ctx, i, batch, opts)
		summary.Batches = append(summary.Batches, bs)
		summary.Succeeded += bs.Succeeded
		summary.Failed += bs.Failed
		summary.FailedTickers = append(summary.FailedTickers, bs.FailedTickers...)

		s.logProgress(summary, len(tickers))

		if i < len(batches)-1 && s.cfg.BatchDelay() > 0 {
			if err := sleepCtx(ctx, s.cfg.BatchDelay()); err != nil {
				s.failRemaining(summary, batches[i+1:])
				return summary, fmt.Errorf("run cancelled: %w", err)
			}
		}
	}

	s.logger.Info("run finished",
		"run_id", summary.RunID,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", time.Since(summary.Started).Round(time.Second))
	return summary, nil
}

func (s *Scheduler) runBatch(ctx context.Context, index int, batch []string, opts acquire.Options) (bs BatchSummary) {
	started := time.Now()
	bs = BatchSummary{Index: index, Tickers: batch}

	// Anything escaping the per-ticker recovery fails the whole batch; the
	// run carries on with the next one.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("batch failed", "batch", index, "panic", r)
			bs.Succeeded = 0
			bs.Failed = len(batch)
			bs.FailedTickers = append([]string(nil), batch...)
		}
		bs.Elapsed = time.Since(started)
	}()

	errs := make([]error, len(batch))

	weight := int64(s.cfg.Concurrency)
	if weight < 1 {
		weight = 1
	}
	sem := semaphore.NewWeighted(weight)

	var wg sync.WaitGroup
	for i, ticker := range batch {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			defer sem.Release(1)
			err := s.attempt(ctx, ticker, opts)
			if err == nil {
				// Checkpoint immediately so a hard kill mid-batch keeps
				// every ticker that already finished. A ticker that cannot
				// be checkpointed counts as failed so the next run retries
				// it instead of silently losing it.
				err = s.tracker.MarkComplete(ticker)
			}
			errs[i] = err
		}(i, ticker)
	}
	wg.Wait()

	for i, ticker := range batch {
		if errs[i] != nil {
			s.logger.Error("ticker failed", "ticker", ticker, "error", errs[i])
			bs.Failed++
			bs.FailedTickers = append(bs.FailedTickers, ticker)
			continue
		}
		bs.Succeeded++
	}
	return bs
}

// attempt isolates one ticker so a panic in a provider or store path is
// recorded as that ticker's failure and the run continues.
func (s *Scheduler) attempt(ctx context.Context, ticker string, opts acquire.Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic acquiring %s: %v", ticker, r)
		}
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	_, err = s.acquirer.Acquire(ctx, ticker, opts)
	return err
}

func (s *Scheduler) failRemaining(summary *RunSummary, batches [][]string) {
	for _, batch := range batches {
		for _, ticker := range batch {
			summary.Failed++
			summary.FailedTickers = append(summary.FailedTickers, ticker)
		}
	}
}

func (s *Scheduler) logProgress(summary *RunSummary, total int) {
	done := summary.Succeeded + summary.Failed
	if done == 0 || done >= total {
		return
	}
	elapsed := time.Since(summary.Started)
	perTicker := elapsed / time.Duration(done)
	eta := perTicker * time.Duration(total-done)
	s.logger.Info("run progress",
		"run_id", summary.RunID,
		"done", done,
		"total", total,
		"failed", summary.Failed,
		"elapsed", elapsed.Round(time.Second),
		"eta", eta.Round(time.Second))
}

func partition(tickers []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var batches [][]string
	for len(tickers) > 0 {
		n := min(size, len(tickers))
		batches = append(batches, tickers[:n])
		tickers = tickers[n:]
	}
	return batches
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
