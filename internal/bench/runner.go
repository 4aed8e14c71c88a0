// Package bench drives the measured benchmark operation while a background
// load scenario holds, and aggregates the results.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rateforge/rateforge/internal/metrics"
	"github.com/rateforge/rateforge/internal/scenario"
)

// Scenario is the background-load lifecycle a benchmark runs under.
type Scenario interface {
	Start(ctx context.Context) error
	Maintained() <-chan error
	Stop() error
}

// Options configure a benchmark Runner.
type Options struct {
	Operation      scenario.Requester          // the measured operation (required)
	Samples        int                         // number of measured samples
	SampleRate     int                         // max samples per second (0 means unpaced)
	Collector      *metrics.Collector          // defaults to a fresh collector
	Logger         *zap.Logger
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Samples <= 0 {
		o.Samples = 10
	}
	if o.Collector == nil {
		o.Collector = metrics.NewCollector()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// Result captures one benchmark run.
type Result struct {
	RunID string        `json:"run_id"`
	Start time.Time     `json:"start"`
	Stats metrics.Stats `json:"stats"`
}

// Runner executes the measured operation a fixed number of times while the
// scenario's load is maintained.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run establishes the scenario, takes the configured number of samples, and
// stops the scenario again. If the background load collapses mid-run the
// sampling is aborted and the collapse failure is returned; results gathered
// up to that point are still reported.
func (r *Runner) Run(ctx context.Context, scn Scenario) (Result, error) {
	start := time.Now()
	result := Result{
		RunID: ulid.Make().String(),
		Start: start,
	}

	if err := scn.Start(ctx); err != nil {
		return result, fmt.Errorf("establish load scenario: %w", err)
	}
	defer func() {
		if err := scn.Stop(); err != nil {
			r.opt.Logger.Warn("scenario shutdown failed", zap.Error(err))
		}
	}()

	sampleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.sample(sampleCtx) }()

	var runErr error
	select {
	case runErr = <-done:
	case err := <-scn.Maintained():
		cancel()
		<-done
		runErr = fmt.Errorf("load collapsed during benchmark: %w", err)
	case <-ctx.Done():
		cancel()
		<-done
		runErr = ctx.Err()
	}

	result.Stats = r.opt.Collector.Stats(time.Since(start))
	return result, runErr
}

// sample runs the measured operation Samples times, pacing with the limiter.
// Individual operation failures are recorded, not fatal.
func (r *Runner) sample(ctx context.Context) error {
	limiter := r.opt.LimiterFactory(r.opt.SampleRate)
	for i := 0; i < r.opt.Samples; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		began := time.Now()
		err := r.opt.Operation.Do(ctx)
		r.opt.Collector.Record(time.Since(began), err)
	}
	return nil
}
