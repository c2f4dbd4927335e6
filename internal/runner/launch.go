package runner

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type launchController interface {
	Wait(ctx context.Context) error
}

func newLaunchController(opt Options) launchController {
	if opt.LaunchRate <= 0 {
		return nil
	}

	switch opt.LaunchModel {
	case LaunchModelPoisson:
		sampler := opt.PoissonSampler
		if sampler == nil {
			seeded := rand.New(rand.NewSource(opt.RandomSeed))
			sampler = seeded.ExpFloat64
		}
		return &poissonLaunch{rate: float64(opt.LaunchRate), sample: sampler}
	default:
		return &uniformLaunch{limiter: opt.LimiterFactory(opt.LaunchRate)}
	}
}

// uniformLaunch delegates pacing to a rate.Limiter (uniform spacing).
type uniformLaunch struct {
	limiter *rate.Limiter
}

func (u *uniformLaunch) Wait(ctx context.Context) error {
	if u == nil || u.limiter == nil {
		return nil
	}
	return u.limiter.Wait(ctx)
}

// poissonLaunch samples exponential inter-arrival times to approximate a
// Poisson process of session starts.
type poissonLaunch struct {
	mu     sync.Mutex
	rate   float64
	sample func() float64
}

func (p *poissonLaunch) Wait(ctx context.Context) error {
	delay := p.nextDelay()
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

func (p *poissonLaunch) nextDelay() time.Duration {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate <= 0 || p.sample == nil {
		return 0
	}

	value := p.sample()
	delay := float64(time.Second) * value / p.rate
	if delay > math.MaxInt64 {
		delay = math.MaxInt64
	}
	return time.Duration(delay)
}
