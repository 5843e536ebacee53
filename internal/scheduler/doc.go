// Package scheduler drives an acquisition run over a ticker universe.
//
// The universe is partitioned into fixed-size batches. Tickers within a
// batch run through a bounded worker pool paced by a shared token bucket;
// batches are separated by a fixed delay. Successes are checkpointed as
// they complete, failures are collected for the failed-tickers file, and a
// panic in one ticker never takes down the run.
package scheduler
