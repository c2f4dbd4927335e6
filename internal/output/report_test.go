package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/convofire/convofire/internal/metrics"
)

func sampleSummary() metrics.Summary {
	return metrics.Summary{
		RunID:          "01J8ZYXW0000000000000000",
		TotalRequests:  220,
		Sessions:       20,
		Succeeded:      18,
		Failed:         2,
		Duration:       10 * time.Second,
		RequestsPerSec: 22.0,
		MinLatency:     5 * time.Millisecond,
		MaxLatency:     250 * time.Millisecond,
		MeanLatency:    40 * time.Millisecond,
		P50Latency:     30 * time.Millisecond,
		P90Latency:     90 * time.Millisecond,
		P99Latency:     200 * time.Millisecond,
		MeanSession:    8 * time.Second,
		P50Session:     8 * time.Second,
		P90Session:     9 * time.Second,
		P99Session:     10 * time.Second,
		Errors: map[string]int{
			"HTTP error response": 2,
		},
		SampleFailures: []string{"session abc123: turn 3: HTTP 500: boom"},
	}
}

func TestPrintReportBasic(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleSummary())

	out := buf.String()
	for _, want := range []string{
		"--- Load Test Results ---",
		"Run ID:",
		"Total Requests:    220",
		"Sessions:          20",
		"Succeeded:         18",
		"Failed:            2",
		"Requests/sec:      22.00",
		"Request Latency:",
		"Session Duration:",
		"Errors:",
		"HTTP error response: 2",
		"Sample Failures:",
		"session abc123",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportOmitsEmptySections(t *testing.T) {
	summary := sampleSummary()
	summary.RunID = ""
	summary.Errors = nil
	summary.SampleFailures = nil

	var buf bytes.Buffer
	PrintReport(&buf, summary)

	out := buf.String()
	if strings.Contains(out, "Run ID") {
		t.Error("empty run id should not be printed")
	}
	if strings.Contains(out, "Errors:") {
		t.Error("error section should be omitted when empty")
	}
	if strings.Contains(out, "Sample Failures:") {
		t.Error("sample section should be omitted when empty")
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleSummary()); err != nil {
		t.Fatalf("json report: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded["total_requests"].(float64) != 220 {
		t.Errorf("total_requests = %v", decoded["total_requests"])
	}
	if decoded["requests_per_sec"].(float64) != 22.0 {
		t.Errorf("requests_per_sec = %v", decoded["requests_per_sec"])
	}
	if decoded["run_id"].(string) == "" {
		t.Error("run_id should be present")
	}
	if _, hasDuration := decoded["duration_seconds"]; !hasDuration {
		t.Error("duration_seconds missing from JSON output")
	}
}
