package runner

import (
	"context"

	"github.com/convofire/convofire/internal/session"
)

// FailureLogger logs failed sessions.
type FailureLogger interface {
	LogFailure(outcome session.Outcome)
}

// loggingRunner wraps a SessionRunner with failure logging.
type loggingRunner struct {
	inner  SessionRunner
	logger FailureLogger
}

// WithLogging wraps a SessionRunner to log failure outcomes.
func WithLogging(inner SessionRunner, logger FailureLogger) SessionRunner {
	if logger == nil {
		return inner
	}
	return &loggingRunner{
		inner:  inner,
		logger: logger,
	}
}

func (l *loggingRunner) RunSession(ctx context.Context, index int) session.Outcome {
	outcome := l.inner.RunSession(ctx, index)
	if outcome.Failed() && l.logger != nil {
		l.logger.LogFailure(outcome)
	}
	return outcome
}
