package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/convofire/convofire/internal/config"
	"github.com/convofire/convofire/internal/dashboard"
	"github.com/convofire/convofire/internal/httpclient"
	"github.com/convofire/convofire/internal/metrics"
	"github.com/convofire/convofire/internal/output"
	"github.com/convofire/convofire/internal/runner"
	"github.com/convofire/convofire/internal/session"
	"github.com/convofire/convofire/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

type stderrFailureLogger struct {
	mu sync.Mutex
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := ulid.Make().String()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	client := httpclient.NewClient(cfg.Timeout)
	agg := metrics.NewAggregator()

	ids := session.NewGenerator(cfg.IDLength, nil)
	driver := session.NewDriver(client, session.Params{
		BaseURL:      cfg.BaseURL,
		InterviewKey: cfg.InterviewKey,
		Turns:        cfg.Turns,
		MinDelay:     cfg.MinDelay,
		MaxDelay:     cfg.MaxDelay,
	}, ids).WithRecorder(agg)
	if cfg.Tracing.Enabled {
		driver = driver.WithTracing(provider.Tracer(), provider.ShouldPropagate())
	}

	var wrapped runner.SessionRunner = driver
	if cfg.LogErrors {
		wrapped = runner.WithLogging(wrapped, &stderrFailureLogger{})
	}

	r := runner.New(runner.Options{
		Sessions:    cfg.Users,
		Workers:     cfg.WorkerCount(),
		LaunchRate:  cfg.LaunchRate,
		LaunchModel: runner.LaunchModel(cfg.Launch.Model),
		Runner:      wrapped,
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(agg, dashboard.RunConfig{
			BaseURL:      cfg.BaseURL,
			InterviewKey: cfg.InterviewKey,
			Sessions:     cfg.Users,
			Turns:        cfg.Turns,
			Workers:      cfg.WorkerCount(),
			LaunchRate:   cfg.LaunchRate,
			Timeout:      cfg.Timeout,
			ConfigFile:   cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		fmt.Fprintf(os.Stdout, "Starting load test %s: %d users, %d turns each, delays %s-%s, base_url=%s\n",
			runID, cfg.Users, cfg.Turns, cfg.MinDelay, cfg.MaxDelay, cfg.BaseURL)
		progress = output.NewProgressReporter(agg, cfg.Users, progressInterval, os.Stdout)
		progress.Start()
	}

	outcomes := make(chan session.Outcome, cfg.Users)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for outcome := range outcomes {
			agg.ObserveSession(outcome)
		}
	}()

	// Mark the actual start time so live RPS reflects the batch, not setup.
	agg.Start()
	result := r.Run(ctx, outcomes)
	<-consumed

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}
	if dash != nil {
		dash.Stop()
	}

	summary := agg.Summary(result.Duration)
	summary.RunID = runID

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, summary)
	}

	if result.Failures > 0 {
		return fmt.Errorf("%d sessions failed", result.Failures)
	}
	return nil
}

func (l *stderrFailureLogger) LogFailure(outcome session.Outcome) {
	if outcome.Err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[convofire] session %s failed: %v\n", outcome.SessionID, outcome.Err)
}
