// Package metrics aggregates request and session measurements during a load run.
//
// The central [Aggregator] type collects latency samples from session drivers
// and whole-session outcomes from the runner:
//
//	agg := metrics.NewAggregator()
//	agg.Start() // Mark run start for accurate RPS calculation
//
//	// Record each HTTP request as it completes
//	agg.RecordRequest(latency, err)
//
//	// Record each finished session
//	agg.ObserveSession(outcome)
//
//	// Produce the final report
//	summary := agg.Summary(elapsed)
//
// # Request counting
//
// Request totals in the [Summary] are derived from session outcomes, which
// carry the number of requests each session actually issued, including the
// partial count of sessions that aborted mid-conversation. The per-request
// counters fed by RecordRequest only drive live progress reporting.
//
// # Thread Safety
//
// The Aggregator is guarded by a single mutex. It is safe to call
// RecordRequest and ObserveSession from multiple goroutines.
package metrics
