// Package acquire runs the fetch-reconcile-store cycle for one ticker.
//
// Each attempt covers the entity kinds enabled in Options, in a fixed order
// (prices, metrics, news, insider trades). The first error aborts the
// remaining kinds so the caller can mark the whole ticker failed and retry
// it on a later run. Checkpointing lives with the scheduler, not here.
package acquire
