package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func newBackend(landings, turns *int64, failTurns bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(turns, 1)
		if failTurns {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"question":"next one"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(landings, 1)
		_, _ = w.Write([]byte("<html>interview</html>"))
	})
	return mux
}

// captureStdout redirects os.Stdout for the duration of fn.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	done := make(chan string)
	go func() {
		raw, _ := io.ReadAll(r)
		done <- string(raw)
	}()

	fn()
	_ = w.Close()
	return <-done
}

func TestRunEndToEnd(t *testing.T) {
	var landings, turns int64
	srv := httptest.NewServer(newBackend(&landings, &turns, false))
	defer srv.Close()

	out := captureStdout(t, func() {
		err := run([]string{
			"--base-url", srv.URL,
			"-k", "STOCK_MARKET",
			"-u", "5",
			"-n", "3",
			"--min-delay", "0s",
			"--max-delay", "0s",
		})
		if err != nil {
			t.Errorf("run: %v", err)
		}
	})

	if got := atomic.LoadInt64(&landings); got != 5 {
		t.Errorf("landings = %d, want 5", got)
	}
	if got := atomic.LoadInt64(&turns); got != 15 {
		t.Errorf("turns = %d, want 15", got)
	}
	if !strings.Contains(out, "--- Load Test Results ---") {
		t.Errorf("missing report header:\n%s", out)
	}
	if !strings.Contains(out, "Total Requests:    20") {
		t.Errorf("expected 20 total requests in report:\n%s", out)
	}
	if !strings.Contains(out, "Starting load test") {
		t.Errorf("missing startup banner:\n%s", out)
	}
}

func TestRunJSONOutput(t *testing.T) {
	var landings, turns int64
	srv := httptest.NewServer(newBackend(&landings, &turns, false))
	defer srv.Close()

	out := captureStdout(t, func() {
		err := run([]string{
			"--base-url", srv.URL,
			"-u", "2",
			"-n", "2",
			"--min-delay", "0s",
			"--max-delay", "0s",
			"--json-output",
		})
		if err != nil {
			t.Errorf("run: %v", err)
		}
	})

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("json output is not valid JSON: %v\n%s", err, out)
	}
	if decoded["total_requests"].(float64) != 6 {
		t.Errorf("total_requests = %v, want 6", decoded["total_requests"])
	}
	if decoded["sessions"].(float64) != 2 {
		t.Errorf("sessions = %v, want 2", decoded["sessions"])
	}
	if decoded["run_id"].(string) == "" {
		t.Error("run_id should be set")
	}
}

func TestRunReportsFailuresAsError(t *testing.T) {
	var landings, turns int64
	srv := httptest.NewServer(newBackend(&landings, &turns, true))
	defer srv.Close()

	_ = captureStdout(t, func() {
		err := run([]string{
			"--base-url", srv.URL,
			"-u", "3",
			"-n", "2",
			"--min-delay", "0s",
			"--max-delay", "0s",
		})
		if err == nil {
			t.Error("expected non-nil error when sessions fail")
		} else if !strings.Contains(err.Error(), "3 sessions failed") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	// Each session aborts at its first turn.
	if got := atomic.LoadInt64(&turns); got != 3 {
		t.Errorf("turns = %d, want 3", got)
	}
}

func TestRunValidationFailure(t *testing.T) {
	err := run([]string{"--base-url", "", "-u", "0"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunHelpIsNotAnError(t *testing.T) {
	out := captureStdout(t, func() {
		if err := run([]string{"--help"}); err != nil {
			t.Errorf("help should not be an error: %v", err)
		}
	})
	if !strings.Contains(out, "--base-url") {
		t.Errorf("help output should list flags:\n%s", out)
	}
}
