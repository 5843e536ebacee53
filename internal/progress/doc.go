// Package progress provides the durable run checkpoint.
//
// The checkpoint is a plain text file, one completed ticker per line,
// append-only. A restarted run loads it and skips completed tickers, so a
// multi-hour acquisition survives crashes and Ctrl-C without refetching.
// The failed-tickers side file is overwritten each run.
package progress
