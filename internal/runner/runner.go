package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/convofire/convofire/internal/session"
)

// Result captures batch execution summary. Duration is the wall clock of the
// whole batch, from before the first dispatch to after the last outcome.
type Result struct {
	Sessions int64
	Failures int64
	Duration time.Duration
}

// Runner fans session tasks out onto a bounded worker pool.
type Runner struct {
	opt    Options
	launch launchController
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, launch: newLaunchController(opt)}
}

// Run executes all configured sessions and sends each outcome to out as it
// completes, in no particular order. out is closed once the batch finishes.
// A failing session surfaces only as its own outcome; queued and in-flight
// sessions always run to completion.
func (r *Runner) Run(ctx context.Context, out chan<- session.Outcome) Result {
	start := time.Now()
	var completed int64
	var failures int64

	indices := make(chan int)

	// Scheduler: serializes launch pacing so workers only pick up allocated
	// sessions.
	go func() {
		defer close(indices)
		for i := 0; i < r.opt.Sessions; i++ {
			if ctx.Err() != nil {
				return
			}
			if r.launch != nil {
				if err := r.launch.Wait(ctx); err != nil {
					return
				}
			}
			select {
			case indices <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Workers)
	for i := 0; i < r.opt.Workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range indices {
				outcome := r.opt.Runner.RunSession(ctx, idx)
				atomic.AddInt64(&completed, 1)
				if outcome.Failed() {
					atomic.AddInt64(&failures, 1)
				}
				if out != nil {
					out <- outcome
				}
			}
		}()
	}
	wg.Wait()

	if out != nil {
		close(out)
	}

	return Result{
		Sessions: atomic.LoadInt64(&completed),
		Failures: atomic.LoadInt64(&failures),
		Duration: time.Since(start),
	}
}
