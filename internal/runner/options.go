package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/convofire/convofire/internal/session"
)

// SessionRunner abstracts executing a single session task.
// Implementations return failures as outcome values, never as panics.
type SessionRunner interface {
	RunSession(ctx context.Context, index int) session.Outcome
}

type LaunchModel string

const (
	LaunchModelUniform LaunchModel = "uniform"
	LaunchModelPoisson LaunchModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	Sessions       int           // total session tasks to execute
	Workers        int           // concurrent workers (0 means one per session)
	LaunchRate     int           // sessions started per second (0 means unlimited)
	LaunchModel    LaunchModel   // pacing model for session starts
	RandomSeed     int64         // seed for the Poisson sampler
	PoissonSampler func() float64              // optional injection for tests
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	Runner         SessionRunner               // session executor (required)
}

func (o *Options) normalize() {
	if o.Sessions < 0 {
		o.Sessions = 0
	}
	if o.Workers <= 0 || o.Workers > o.Sessions {
		o.Workers = o.Sessions
	}
	if o.LaunchRate < 0 {
		o.LaunchRate = 0
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing across workers.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
