package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/convofire/convofire/internal/tracing"
)

const maxBodySnippet = 1024

// Params describe one simulated interviewee's protocol: where to talk, which
// interview configuration to request, and how to pace turns.
type Params struct {
	BaseURL      string
	InterviewKey string
	Turns        int
	MinDelay     time.Duration
	MaxDelay     time.Duration
}

// Recorder receives per-request latency observations from the driver.
type Recorder interface {
	RecordRequest(latency time.Duration, err error)
}

// Outcome is the terminal result of one session. Err is nil for sessions that
// completed every turn; Requests counts every request actually sent, including
// the one that failed.
type Outcome struct {
	SessionID  string
	Index      int
	Requests   int
	Duration   time.Duration
	Err        error
	FailedTurn int // -1 unless a specific turn failed
}

// Failed reports whether the session ended in a failure outcome.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Driver simulates one interviewee's full session lifecycle: a landing request
// followed by a strict sequence of conversation turns with randomized pacing.
// A single Driver is shared by all workers; per-session state lives entirely
// in the RunSession call.
type Driver struct {
	client    *http.Client
	params    Params
	ids       *Generator
	recorder  Recorder
	tracer    trace.Tracer
	propagate bool
	delays    *delaySource
}

// NewDriver creates a Driver. The client's timeout is the only per-request
// deadline the harness applies.
func NewDriver(client *http.Client, params Params, ids *Generator) *Driver {
	params.BaseURL = strings.TrimRight(params.BaseURL, "/")
	return &Driver{
		client: client,
		params: params,
		ids:    ids,
		delays: newDelaySource(time.Now().UnixNano()),
	}
}

// WithRecorder attaches a per-request latency recorder.
func (d *Driver) WithRecorder(recorder Recorder) *Driver {
	d.recorder = recorder
	return d
}

// WithTracing attaches a tracer that emits one span per session. When
// propagate is true, W3C trace headers are injected into every request.
func (d *Driver) WithTracing(tracer trace.Tracer, propagate bool) *Driver {
	d.tracer = tracer
	d.propagate = propagate
	return d
}

type turnRequest struct {
	SessionID   string `json:"session_id"`
	InterviewID string `json:"interview_id"`
	UserMessage string `json:"user_message"`
}

// RunSession executes one full session and returns its outcome. Failures are
// returned as data; RunSession never panics and never affects other sessions.
func (d *Driver) RunSession(ctx context.Context, index int) Outcome {
	sessionID := d.ids.Next()
	out := Outcome{SessionID: sessionID, Index: index, FailedTurn: -1}

	var span trace.Span
	if d.tracer != nil {
		ctx, span = d.tracer.Start(ctx, "interview session",
			trace.WithSpanKind(trace.SpanKindClient),
		)
		span.SetAttributes(
			attribute.String("convofire.session_id", sessionID),
			attribute.String("convofire.interview_key", d.params.InterviewKey),
		)
	}

	start := time.Now()
	err := d.runProtocol(ctx, sessionID, &out)
	out.Duration = time.Since(start)
	out.Err = err

	if span != nil {
		tracing.EndSpan(span, err,
			attribute.Int("convofire.requests", out.Requests),
			attribute.Int("convofire.failed_turn", out.FailedTurn),
		)
	}
	return out
}

func (d *Driver) runProtocol(ctx context.Context, sessionID string, out *Outcome) error {
	// Landing request establishes the session. A failure here aborts before
	// any turn is attempted.
	out.Requests++
	if err := d.landing(ctx, sessionID); err != nil {
		return err
	}

	for turn := 0; turn < d.params.Turns; turn++ {
		out.Requests++
		if err := d.turn(ctx, sessionID, turn); err != nil {
			out.FailedTurn = turn
			return err
		}

		if turn < d.params.Turns-1 && d.params.MaxDelay > 0 {
			if err := d.pause(ctx); err != nil {
				return fmt.Errorf("session interrupted: %w", err)
			}
		}
	}
	return nil
}

func (d *Driver) landing(ctx context.Context, sessionID string) error {
	url := d.params.BaseURL + "/" + d.params.InterviewKey + "/" + sessionID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("landing request: %w", err)
	}
	if d.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		err = fmt.Errorf("landing request: %w", err)
		d.record(latency, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{
			Stage:      StageLanding,
			Turn:       -1,
			StatusCode: resp.StatusCode,
			Body:       readSnippet(resp.Body),
		}
		d.record(latency, statusErr)
		return statusErr
	}

	// Body content is not interpreted beyond the status check.
	_, _ = io.Copy(io.Discard, resp.Body)
	d.record(latency, nil)
	return nil
}

func (d *Driver) turn(ctx context.Context, sessionID string, turn int) error {
	payload, err := json.Marshal(turnRequest{
		SessionID:   sessionID,
		InterviewID: d.params.InterviewKey,
		UserMessage: fmt.Sprintf("Dummy answer turn %d", turn),
	})
	if err != nil {
		return fmt.Errorf("turn %d: encode payload: %w", turn, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.params.BaseURL+"/next", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("turn %d: %w", turn, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		err = fmt.Errorf("turn %d: %w", turn, err)
		d.record(latency, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{
			Stage:      StageTurn,
			Turn:       turn,
			StatusCode: resp.StatusCode,
			Body:       readSnippet(resp.Body),
		}
		d.record(latency, statusErr)
		return statusErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("turn %d: read response: %w", turn, err)
		d.record(latency, err)
		return err
	}
	if !gjson.ValidBytes(raw) {
		bodyErr := &BodyError{
			SessionID: sessionID,
			Turn:      turn,
			Body:      snippet(raw),
		}
		d.record(latency, bodyErr)
		return bodyErr
	}

	d.record(latency, nil)
	return nil
}

// pause sleeps for a duration sampled uniformly from [MinDelay, MaxDelay].
func (d *Driver) pause(ctx context.Context) error {
	delay := d.delays.between(d.params.MinDelay, d.params.MaxDelay)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Driver) record(latency time.Duration, err error) {
	if d.recorder != nil {
		d.recorder.RecordRequest(latency, err)
	}
}

func readSnippet(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxBodySnippet))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func snippet(raw []byte) string {
	if len(raw) > maxBodySnippet {
		raw = raw[:maxBodySnippet]
	}
	return strings.TrimSpace(string(raw))
}

// delaySource samples uniform inter-turn delays. Workers share one driver, so
// the underlying rand must be locked.
type delaySource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newDelaySource(seed int64) *delaySource {
	return &delaySource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *delaySource) between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + time.Duration(s.rnd.Int63n(int64(max-min)+1))
}
