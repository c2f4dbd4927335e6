package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/convofire/convofire/internal/session"
)

const maxSampleFailures = 5

// Aggregator consumes session outcomes and per-request latency observations
// in a thread-safe manner. Request totals are derived from outcomes, so every
// request actually sent counts, including those issued before a mid-session
// failure.
type Aggregator struct {
	mu             sync.Mutex
	latencyHist    *hdrhistogram.Histogram
	sessionHist    *hdrhistogram.Histogram
	requests       int64
	liveRequests   int64
	liveFailures   int64
	sessionsOK     int64
	sessionsFailed int64
	minLatency     time.Duration
	maxLatency     time.Duration
	sumLatency     time.Duration
	latencyCount   int64
	errorsByType   map[string]int64
	sampleFailures []string
	start          time.Time
}

// Summary represents the aggregate of a finished batch.
type Summary struct {
	RunID          string        `json:"run_id,omitempty"`
	TotalRequests  int64         `json:"total_requests"`
	Sessions       int64         `json:"sessions"`
	Succeeded      int64         `json:"succeeded"`
	Failed         int64         `json:"failed"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`

	MinLatency  time.Duration `json:"-"`
	MaxLatency  time.Duration `json:"-"`
	MeanLatency time.Duration `json:"-"`
	P50Latency  time.Duration `json:"-"`
	P90Latency  time.Duration `json:"-"`
	P99Latency  time.Duration `json:"-"`

	MeanSession time.Duration `json:"-"`
	P50Session  time.Duration `json:"-"`
	P90Session  time.Duration `json:"-"`
	P99Session  time.Duration `json:"-"`

	// JSON-friendly fields.
	DurationSeconds float64        `json:"duration_seconds"`
	MinLatencyMs    float64        `json:"min_latency_ms"`
	MaxLatencyMs    float64        `json:"max_latency_ms"`
	MeanLatencyMs   float64        `json:"mean_latency_ms"`
	P50LatencyMs    float64        `json:"p50_latency_ms"`
	P90LatencyMs    float64        `json:"p90_latency_ms"`
	P99LatencyMs    float64        `json:"p99_latency_ms"`
	MeanSessionMs   float64        `json:"mean_session_ms"`
	P50SessionMs    float64        `json:"p50_session_ms"`
	P90SessionMs    float64        `json:"p90_session_ms"`
	P99SessionMs    float64        `json:"p99_session_ms"`
	Errors          map[string]int `json:"errors,omitempty"`
	SampleFailures  []string       `json:"sample_failures,omitempty"`
}

// Snapshot is a cheap live view for progress reporting while the batch runs.
type Snapshot struct {
	Requests        int64
	RequestFailures int64
	SessionsDone    int64
	SessionsFailed  int64
	RequestsPerSec  float64
}

func NewAggregator() *Aggregator {
	// Request latencies from 1µs to 60s, session durations from 1ms to 1h,
	// both with 3 significant figures.
	return &Aggregator{
		latencyHist:  hdrhistogram.New(1, 60_000_000, 3),
		sessionHist:  hdrhistogram.New(1, 3_600_000, 3),
		errorsByType: make(map[string]int64),
		start:        time.Now(),
	}
}

// Start marks the actual batch start instant for live RPS calculation.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.start = time.Now()
}

// RecordRequest records a single request's latency and error state. Called by
// session drivers from many workers.
func (a *Aggregator) RecordRequest(latency time.Duration, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < a.latencyHist.LowestTrackableValue() {
			us = a.latencyHist.LowestTrackableValue()
		}
		if us > a.latencyHist.HighestTrackableValue() {
			us = a.latencyHist.HighestTrackableValue()
		}
		_ = a.latencyHist.RecordValue(us)
	}
	a.sumLatency += latency
	a.latencyCount++

	if a.minLatency == 0 || latency < a.minLatency {
		a.minLatency = latency
	}
	if latency > a.maxLatency {
		a.maxLatency = latency
	}

	a.liveRequests++
	if err != nil {
		a.liveFailures++
	}
}

// ObserveSession consumes one session outcome. Each outcome must be observed
// exactly once.
func (a *Aggregator) ObserveSession(outcome session.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests += int64(outcome.Requests)

	ms := outcome.Duration.Milliseconds()
	if ms < a.sessionHist.LowestTrackableValue() {
		ms = a.sessionHist.LowestTrackableValue()
	}
	if ms > a.sessionHist.HighestTrackableValue() {
		ms = a.sessionHist.HighestTrackableValue()
	}
	_ = a.sessionHist.RecordValue(ms)

	if !outcome.Failed() {
		a.sessionsOK++
		return
	}

	a.sessionsFailed++
	a.errorsByType[FriendlyErrorName(fmt.Sprintf("%T", outcome.Err))]++
	if len(a.sampleFailures) < maxSampleFailures {
		a.sampleFailures = append(a.sampleFailures, fmt.Sprintf("session %s: %v", outcome.SessionID, outcome.Err))
	}
}

// LiveSnapshot returns current counters for progress display.
func (a *Aggregator) LiveSnapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Requests:        a.liveRequests,
		RequestFailures: a.liveFailures,
		SessionsDone:    a.sessionsOK + a.sessionsFailed,
		SessionsFailed:  a.sessionsFailed,
	}
	if elapsed := time.Since(a.start); elapsed > 0 && a.liveRequests > 0 {
		snap.RequestsPerSec = float64(a.liveRequests) / elapsed.Seconds()
	}
	return snap
}

// Summary computes the aggregate for the batch measured over elapsed.
// Throughput is zero for a zero elapsed time rather than a division error.
func (a *Aggregator) Summary(elapsed time.Duration) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := Summary{
		TotalRequests: a.requests,
		Sessions:      a.sessionsOK + a.sessionsFailed,
		Succeeded:     a.sessionsOK,
		Failed:        a.sessionsFailed,
		Duration:      elapsed,
		MinLatency:    a.minLatency,
		MaxLatency:    a.maxLatency,
	}

	if a.latencyCount > 0 {
		summary.MeanLatency = time.Duration(int64(a.sumLatency) / a.latencyCount)
	}
	if a.latencyHist.TotalCount() > 0 {
		summary.P50Latency = time.Duration(a.latencyHist.ValueAtQuantile(50)) * time.Microsecond
		summary.P90Latency = time.Duration(a.latencyHist.ValueAtQuantile(90)) * time.Microsecond
		summary.P99Latency = time.Duration(a.latencyHist.ValueAtQuantile(99)) * time.Microsecond
	}
	if a.sessionHist.TotalCount() > 0 {
		summary.MeanSession = time.Duration(a.sessionHist.Mean()) * time.Millisecond
		summary.P50Session = time.Duration(a.sessionHist.ValueAtQuantile(50)) * time.Millisecond
		summary.P90Session = time.Duration(a.sessionHist.ValueAtQuantile(90)) * time.Millisecond
		summary.P99Session = time.Duration(a.sessionHist.ValueAtQuantile(99)) * time.Millisecond
	}

	summary.DurationSeconds = elapsed.Seconds()
	summary.MinLatencyMs = float64(summary.MinLatency) / float64(time.Millisecond)
	summary.MaxLatencyMs = float64(summary.MaxLatency) / float64(time.Millisecond)
	summary.MeanLatencyMs = float64(summary.MeanLatency) / float64(time.Millisecond)
	summary.P50LatencyMs = float64(summary.P50Latency) / float64(time.Millisecond)
	summary.P90LatencyMs = float64(summary.P90Latency) / float64(time.Millisecond)
	summary.P99LatencyMs = float64(summary.P99Latency) / float64(time.Millisecond)
	summary.MeanSessionMs = float64(summary.MeanSession) / float64(time.Millisecond)
	summary.P50SessionMs = float64(summary.P50Session) / float64(time.Millisecond)
	summary.P90SessionMs = float64(summary.P90Session) / float64(time.Millisecond)
	summary.P99SessionMs = float64(summary.P99Session) / float64(time.Millisecond)

	if elapsed > 0 && a.requests > 0 {
		summary.RequestsPerSec = float64(a.requests) / elapsed.Seconds()
	}

	if len(a.errorsByType) > 0 {
		summary.Errors = make(map[string]int, len(a.errorsByType))
		for k, v := range a.errorsByType {
			summary.Errors[k] = int(v)
		}
	}
	if len(a.sampleFailures) > 0 {
		summary.SampleFailures = append([]string(nil), a.sampleFailures...)
	}

	return summary
}
