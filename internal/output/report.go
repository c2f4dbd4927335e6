package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/convofire/convofire/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, summary metrics.Summary) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	if summary.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", summary.RunID)
	}
	fmt.Fprintf(w, "Total Requests:    %d\n", summary.TotalRequests)
	fmt.Fprintf(w, "Sessions:          %d\n", summary.Sessions)
	fmt.Fprintf(w, "Succeeded:         %d\n", summary.Succeeded)
	fmt.Fprintf(w, "Failed:            %d\n", summary.Failed)
	fmt.Fprintf(w, "Duration:          %s\n", summary.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", summary.RequestsPerSec)
	fmt.Fprintln(w, "\nRequest Latency:")
	fmt.Fprintf(w, "  Min:             %s\n", summary.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", summary.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", summary.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", summary.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", summary.P90Latency)
	fmt.Fprintf(w, "  P99:             %s\n", summary.P99Latency)
	fmt.Fprintln(w, "\nSession Duration:")
	fmt.Fprintf(w, "  Mean:            %s\n", summary.MeanSession)
	fmt.Fprintf(w, "  P50:             %s\n", summary.P50Session)
	fmt.Fprintf(w, "  P90:             %s\n", summary.P90Session)
	fmt.Fprintf(w, "  P99:             %s\n", summary.P99Session)

	if len(summary.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		names := make([]string, 0, len(summary.Errors))
		for name := range summary.Errors {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if summary.Errors[names[i]] != summary.Errors[names[j]] {
				return summary.Errors[names[i]] > summary.Errors[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Fprintf(w, "  - %s: %d\n", name, summary.Errors[name])
		}
	}

	if len(summary.SampleFailures) > 0 {
		fmt.Fprintln(w, "\nSample Failures:")
		for _, sample := range summary.SampleFailures {
			fmt.Fprintf(w, "  - %s\n", sample)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, summary metrics.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
