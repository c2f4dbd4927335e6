package runner_test

import (
	"context"
	"testing"

	"github.com/convofire/convofire/internal/runner"
	"github.com/convofire/convofire/internal/session"
)

type captureLogger struct {
	outcomes []session.Outcome
}

func (c *captureLogger) LogFailure(outcome session.Outcome) {
	c.outcomes = append(c.outcomes, outcome)
}

func TestWithLoggingReportsOnlyFailures(t *testing.T) {
	fake := &fakeSessionRunner{failIdx: map[int]bool{1: true}}
	logger := &captureLogger{}
	wrapped := runner.WithLogging(fake, logger)

	if out := wrapped.RunSession(context.Background(), 0); out.Failed() {
		t.Fatalf("session 0 should succeed: %v", out.Err)
	}
	if out := wrapped.RunSession(context.Background(), 1); !out.Failed() {
		t.Fatal("session 1 should fail")
	}

	if len(logger.outcomes) != 1 {
		t.Fatalf("expected 1 logged failure, got %d", len(logger.outcomes))
	}
	if logger.outcomes[0].Index != 1 {
		t.Fatalf("logged wrong session: %d", logger.outcomes[0].Index)
	}
	if logger.outcomes[0].Err == nil {
		t.Fatal("logged outcome should carry the error")
	}
}

func TestWithLoggingNilLoggerPassesThrough(t *testing.T) {
	fake := &fakeSessionRunner{}
	if got := runner.WithLogging(fake, nil); got != runner.SessionRunner(fake) {
		t.Fatal("nil logger should return the inner runner unchanged")
	}
}
