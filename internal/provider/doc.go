// Package provider implements the external data source clients.
//
// Two providers are supported:
//   - Financial Datasets (paid, API key, full entity coverage)
//   - Yahoo Finance (free, rate limited, no insider trades)
//
// An empty result set from either provider means the ticker has no data of
// that kind; it is never an error. Every returned record carries the
// provider's name in its source field.
package provider
