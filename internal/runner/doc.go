// Package runner provides the batch execution engine for convofire.
//
// The runner dispatches independent session tasks onto a bounded pool of
// workers and yields outcomes as they complete:
//
//	opts := runner.Options{
//		Sessions: 100,
//		Workers:  20,
//		Runner:   driver,
//	}
//	outcomes := make(chan session.Outcome, opts.Sessions)
//	result := runner.New(opts).Run(ctx, outcomes)
//
// # Failure isolation
//
// The [SessionRunner] interface returns failures as outcome values rather
// than errors or panics, so one failing session can never abort collection
// of the others. The runner only tallies; interpretation is left to the
// metrics aggregator.
//
// # Launch pacing
//
// Session starts can optionally be rate limited with two pacing models:
//   - [LaunchModelUniform]: fixed inter-start spacing via a rate.Limiter
//   - [LaunchModelPoisson]: exponential inter-start gaps for realistic arrival
//
// # Middleware
//
// [WithLogging] wraps a SessionRunner to log failure outcomes as they occur.
package runner
