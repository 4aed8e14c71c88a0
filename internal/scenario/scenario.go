package scenario

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/rateforge/rateforge/internal/measure"
)

// State describes where a scenario is in its lifecycle.
type State int32

const (
	StateNotStarted State = iota
	StateRampingUp
	StateEstablished
	StateCollapsed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRampingUp:
		return "ramping-up"
	case StateEstablished:
		return "established"
	case StateCollapsed:
		return "collapsed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configure a ReadRequestScenario.
type Options struct {
	Requester    Requester       // request executor (required)
	RequestRate  int             // requests per second to generate and to require
	Interval     time.Duration   // spacing of each loop's ticks
	Timeout      time.Duration   // max time for the rate to reach the target
	SampleSize   int             // sliding window size in whole seconds
	PollInterval time.Duration   // cadence of the rate checks
	Clock        clockwork.Clock // time source shared by loops and watches
	Logger       *zap.Logger
}

func (o *Options) normalize() {
	if o.RequestRate <= 0 {
		o.RequestRate = 10
	}
	if o.Interval <= 0 {
		o.Interval = 10 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 45 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// ReadRequestScenario drives read requests against a service at a fixed rate
// and watches the achieved throughput.
//
// Start blocks until the target rate is observed (or Timeout elapses), then
// hands off to a background monitor. Maintained exposes the monitor's single
// failure slot. Stop tears down the generator and the monitor.
type ReadRequestScenario struct {
	opt       Options
	measurer  *measure.RateMeasurer
	generator *LoadGenerator

	maintained chan error
	failOnce   sync.Once

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc // tears down generator loops and the monitor
}

// NewReadRequestScenario builds a scenario around the given Requester.
// Every completed call attempt records exactly one rate sample, whether or
// not the call itself succeeded.
func NewReadRequestScenario(opt Options) *ReadRequestScenario {
	opt.normalize()
	s := &ReadRequestScenario{
		opt:        opt,
		measurer:   measure.NewRateMeasurer(opt.Clock, opt.SampleSize),
		maintained: make(chan error, 1),
	}
	sampled := RequesterFunc(func(ctx context.Context) error {
		err := opt.Requester.Do(ctx)
		s.measurer.RecordSample()
		return err
	})
	s.generator = NewLoadGenerator(sampled, opt.RequestRate, opt.Interval, opt.Clock, opt.Logger)
	return s
}

// Rate reports the currently measured request rate. NaN until the sliding
// window has filled.
func (s *ReadRequestScenario) Rate() float64 { return s.measurer.Rate() }

// State reports the current lifecycle state.
func (s *ReadRequestScenario) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the load generator and blocks until the measured rate
// reaches the target, returning nil, or until Timeout elapses, returning
// ErrRateNotReached. A timeout leaves the generator running; only Stop
// terminates it. On success a background monitor keeps watching the rate and
// delivers a RateTooLowError through Maintained if it later collapses.
func (s *ReadRequestScenario) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateRampingUp
	// The generator outlives Start's caller; its lifetime ends at Stop.
	genCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.generator.Start(genCtx)
	s.opt.Logger.Info("load generator started",
		zap.Int("request_rate", s.opt.RequestRate),
		zap.Duration("interval", s.opt.Interval),
		zap.Int("loops", s.generator.Loops()),
	)

	if err := s.waitForTargetRate(ctx); err != nil {
		return err
	}

	s.transition(StateRampingUp, StateEstablished)
	s.opt.Logger.Info("target rate established", zap.Float64("rate", s.measurer.Rate()))
	go s.monitor(genCtx)
	return nil
}

// Maintained returns the scenario's long-lived failure signal. The channel
// never delivers a success value: it stays silent until the monitor observes
// a collapse, then delivers exactly one RateTooLowError.
func (s *ReadRequestScenario) Maintained() <-chan error {
	return s.maintained
}

// Stop cancels all generator loops and the collapse monitor, then waits for
// them to settle. It never resolves the Maintained signal itself.
func (s *ReadRequestScenario) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	if s.state == StateRampingUp || s.state == StateEstablished {
		s.state = StateStopped
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return s.generator.Stop()
}

// waitForTargetRate polls the measured rate until it reaches the target or
// the timeout fires, whichever is detected first. If both hold on the same
// tick the success check wins: the timeout branch re-checks the rate once
// before giving up.
func (s *ReadRequestScenario) waitForTargetRate(ctx context.Context) error {
	ticker := s.opt.Clock.NewTicker(s.opt.PollInterval)
	defer ticker.Stop()
	deadline := s.opt.Clock.After(s.opt.Timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			if s.targetReached() {
				return nil
			}
			return ErrRateNotReached
		case <-ticker.Chan():
			if s.targetReached() {
				return nil
			}
		}
	}
}

// targetReached treats an unfilled window (NaN) as not yet at target.
func (s *ReadRequestScenario) targetReached() bool {
	return s.measurer.Rate() >= float64(s.opt.RequestRate)
}

// monitor watches an established scenario for collapse. It runs until the
// rate drops below target, delivering the observed rate through the
// write-once maintained slot, or until the scenario context is cancelled.
func (s *ReadRequestScenario) monitor(ctx context.Context) {
	ticker := s.opt.Clock.NewTicker(s.opt.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			rate := s.measurer.Rate()
			if rate < float64(s.opt.RequestRate) {
				s.failOnce.Do(func() {
					s.transition(StateEstablished, StateCollapsed)
					s.opt.Logger.Warn("request rate collapsed", zap.Float64("rate", rate))
					s.maintained <- &RateTooLowError{Rate: rate}
				})
				return
			}
		}
	}
}

// transition moves from one state to another only if the scenario is still in
// the expected state; a Stop that raced ahead wins.
func (s *ReadRequestScenario) transition(from, to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == from {
		s.state = to
	}
}
