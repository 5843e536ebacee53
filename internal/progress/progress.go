package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Tracker records completed tickers across runs. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	f    *os.File
	done map[string]struct{}
}

// Open loads the checkpoint at path, creating it (and its directory) when
// missing, and keeps it open for appends.
func Open(path string) (*Tracker, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open progress file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	done := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		ticker := strings.TrimSpace(line)
		if ticker != "" {
			done[ticker] = struct{}{}
		}
	}

	return &Tracker{f: f, done: done}, nil
}

// Completed reports whether ticker was checkpointed by this or a prior run.
func (t *Tracker) Completed(ticker string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.done[ticker]
	return ok
}

// Count returns the number of checkpointed tickers.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.done)
}

// Filter returns the tickers not yet checkpointed, preserving order.
func (t *Tracker) Filter(tickers []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if _, ok := t.done[ticker]; !ok {
			remaining = append(remaining, ticker)
		}
	}
	return remaining
}

// MarkComplete appends ticker to the checkpoint. Marking an already
// checkpointed ticker is a no-op, so concurrent schedulers cannot write
// duplicate lines.
func (t *Tracker) MarkComplete(ticker string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.done[ticker]; ok {
		return nil
	}
	if _, err := t.f.WriteString(ticker + "\n"); err != nil {
		return fmt.Errorf("append progress for %s: %w", ticker, err)
	}
	t.done[ticker] = struct{}{}
	return nil
}

// Close releases the underlying file.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Close()
}

// WriteFailed overwrites the failed-tickers file with one ticker per line.
// An empty list truncates the file so a clean rerun does not inherit stale
// failures.
func WriteFailed(path string, tickers []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create failed-tickers dir: %w", err)
		}
	}

	var b strings.Builder
	for _, ticker := range tickers {
		b.WriteString(ticker)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write failed tickers: %w", err)
	}
	return nil
}
