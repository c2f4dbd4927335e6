package session

import "fmt"

// Stage identifies which step of the session protocol a failure occurred in.
type Stage string

const (
	StageLanding Stage = "landing"
	StageTurn    Stage = "turn"
)

// StatusError represents a non-success HTTP status on a landing or turn request.
type StatusError struct {
	Stage      Stage
	Turn       int // -1 for landing failures
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Stage == StageTurn {
		return fmt.Sprintf("turn %d: HTTP %d: %s", e.Turn, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("landing: HTTP %d: %s", e.StatusCode, e.Body)
}

// BodyError represents a turn response whose body was not parseable JSON.
// The raw body excerpt is retained for diagnosis.
type BodyError struct {
	SessionID string
	Turn      int
	Body      string
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("non-JSON response for session %s at turn %d: %s", e.SessionID, e.Turn, e.Body)
}
