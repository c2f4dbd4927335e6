package metrics_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/convofire/convofire/internal/metrics"
	"github.com/convofire/convofire/internal/session"
)

func TestAggregatorCountsRequestsFromOutcomes(t *testing.T) {
	agg := metrics.NewAggregator()

	// 4 complete sessions of 11 requests each plus one that aborted after 3.
	for i := 0; i < 4; i++ {
		agg.ObserveSession(session.Outcome{
			SessionID:  "s",
			Index:      i,
			Requests:   11,
			Duration:   2 * time.Second,
			FailedTurn: -1,
		})
	}
	agg.ObserveSession(session.Outcome{
		SessionID:  "failed",
		Index:      4,
		Requests:   3,
		Duration:   500 * time.Millisecond,
		Err:        errors.New("boom"),
		FailedTurn: 1,
	})

	summary := agg.Summary(10 * time.Second)
	if summary.TotalRequests != 47 {
		t.Fatalf("expected 47 total requests (4*11 + 3), got %d", summary.TotalRequests)
	}
	if summary.Sessions != 5 {
		t.Fatalf("expected 5 sessions, got %d", summary.Sessions)
	}
	if summary.Succeeded != 4 || summary.Failed != 1 {
		t.Fatalf("expected 4/1 split, got %d/%d", summary.Succeeded, summary.Failed)
	}
}

func TestAggregatorThroughput(t *testing.T) {
	agg := metrics.NewAggregator()

	for i := 0; i < 10; i++ {
		agg.ObserveSession(session.Outcome{Requests: 10, FailedTurn: -1})
	}

	summary := agg.Summary(10 * time.Second)
	if summary.RequestsPerSec != 10.0 {
		t.Fatalf("100 requests over 10s should be 10 rps, got %.2f", summary.RequestsPerSec)
	}
}

func TestAggregatorZeroDurationThroughput(t *testing.T) {
	agg := metrics.NewAggregator()
	agg.ObserveSession(session.Outcome{Requests: 5, FailedTurn: -1})

	summary := agg.Summary(0)
	if summary.RequestsPerSec != 0 {
		t.Fatalf("zero elapsed must report zero rps, got %.2f", summary.RequestsPerSec)
	}
}

func TestAggregatorEmptySummary(t *testing.T) {
	agg := metrics.NewAggregator()

	summary := agg.Summary(time.Second)
	if summary.TotalRequests != 0 || summary.Sessions != 0 {
		t.Fatalf("empty aggregator produced %+v", summary)
	}
	if summary.RequestsPerSec != 0 {
		t.Fatalf("empty aggregator rps = %.2f, want 0", summary.RequestsPerSec)
	}
}

func TestAggregatorLatencyPercentiles(t *testing.T) {
	agg := metrics.NewAggregator()

	for i := 1; i <= 100; i++ {
		agg.RecordRequest(time.Duration(i)*time.Millisecond, nil)
	}

	summary := agg.Summary(time.Second)
	if summary.MinLatency != time.Millisecond {
		t.Fatalf("min latency = %s, want 1ms", summary.MinLatency)
	}
	if summary.MaxLatency != 100*time.Millisecond {
		t.Fatalf("max latency = %s, want 100ms", summary.MaxLatency)
	}

	p50 := summary.P50Latency
	if p50 < 45*time.Millisecond || p50 > 55*time.Millisecond {
		t.Fatalf("p50 = %s, want roughly 50ms", p50)
	}
	p99 := summary.P99Latency
	if p99 < 95*time.Millisecond || p99 > 101*time.Millisecond {
		t.Fatalf("p99 = %s, want roughly 99ms", p99)
	}
}

func TestAggregatorErrorBreakdown(t *testing.T) {
	agg := metrics.NewAggregator()

	for i := 0; i < 3; i++ {
		agg.ObserveSession(session.Outcome{
			SessionID: "x",
			Requests:  1,
			Err:       &session.StatusError{Stage: session.StageTurn, Turn: 1, StatusCode: 500},
		})
	}
	agg.ObserveSession(session.Outcome{
		SessionID: "y",
		Requests:  1,
		Err:       &session.BodyError{SessionID: "y", Turn: 0, Body: "<html>"},
	})

	summary := agg.Summary(time.Second)
	if summary.Errors["HTTP error response"] != 3 {
		t.Fatalf("status errors = %d, want 3: %v", summary.Errors["HTTP error response"], summary.Errors)
	}
	if summary.Errors["Malformed response body"] != 1 {
		t.Fatalf("body errors = %d, want 1: %v", summary.Errors["Malformed response body"], summary.Errors)
	}
}

func TestAggregatorCapsSampleFailures(t *testing.T) {
	agg := metrics.NewAggregator()

	for i := 0; i < 20; i++ {
		agg.ObserveSession(session.Outcome{
			SessionID: "s",
			Requests:  1,
			Err:       errors.New("boom"),
		})
	}

	summary := agg.Summary(time.Second)
	if len(summary.SampleFailures) != 5 {
		t.Fatalf("sample failures = %d, want 5", len(summary.SampleFailures))
	}
	for _, sample := range summary.SampleFailures {
		if !strings.Contains(sample, "boom") {
			t.Fatalf("sample %q should carry the error text", sample)
		}
	}
}

func TestAggregatorLiveSnapshot(t *testing.T) {
	agg := metrics.NewAggregator()
	agg.Start()

	agg.RecordRequest(5*time.Millisecond, nil)
	agg.RecordRequest(5*time.Millisecond, errors.New("boom"))
	agg.ObserveSession(session.Outcome{Requests: 2, FailedTurn: -1})

	snap := agg.LiveSnapshot()
	if snap.Requests != 2 {
		t.Fatalf("live requests = %d, want 2", snap.Requests)
	}
	if snap.RequestFailures != 1 {
		t.Fatalf("live failures = %d, want 1", snap.RequestFailures)
	}
	if snap.SessionsDone != 1 {
		t.Fatalf("sessions done = %d, want 1", snap.SessionsDone)
	}
}

func TestAggregatorConcurrentRecording(t *testing.T) {
	agg := metrics.NewAggregator()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				agg.RecordRequest(time.Millisecond, nil)
				agg.ObserveSession(session.Outcome{Requests: 1, FailedTurn: -1})
			}
		}()
	}
	wg.Wait()

	summary := agg.Summary(time.Second)
	if summary.TotalRequests != 800 {
		t.Fatalf("total requests = %d, want 800", summary.TotalRequests)
	}
	if summary.Sessions != 800 {
		t.Fatalf("sessions = %d, want 800", summary.Sessions)
	}
}
