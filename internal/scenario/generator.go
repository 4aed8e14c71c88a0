package scenario

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Requester abstracts executing a single request operation.
// Implementations should return an error for failed requests.
type Requester interface {
	Do(ctx context.Context) error
}

// RequesterFunc adapts a plain function to the Requester interface.
type RequesterFunc func(ctx context.Context) error

func (f RequesterFunc) Do(ctx context.Context) error { return f(ctx) }

// LoadGenerator fans a single Requester out across independently scheduled
// periodic loops. Each loop fires once per interval, so with
// requestsPerSecond × intervalSeconds loops the aggregate call rate settles at
// requestsPerSecond once every loop has warmed up.
type LoadGenerator struct {
	requester Requester
	perSecond int
	interval  time.Duration
	clock     clockwork.Clock
	logger    *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewLoadGenerator creates a generator; loops are not scheduled until Start.
func NewLoadGenerator(requester Requester, perSecond int, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *LoadGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoadGenerator{
		requester: requester,
		perSecond: perSecond,
		interval:  interval,
		clock:     clock,
		logger:    logger,
	}
}

// Loops returns the number of periodic loops Start schedules.
func (g *LoadGenerator) Loops() int {
	return g.perSecond * int(g.interval/time.Second)
}

// Start launches all periodic loops. It does not block; loops keep firing
// until the supplied context is cancelled or Stop is called.
func (g *LoadGenerator) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.group = &errgroup.Group{}

	for i := 0; i < g.Loops(); i++ {
		g.group.Go(func() error {
			return g.runLoop(loopCtx)
		})
	}
}

// Stop cancels every loop, waits for all of them to settle, and returns the
// first loop failure if any. It is a no-op before Start.
func (g *LoadGenerator) Stop() error {
	g.mu.Lock()
	cancel := g.cancel
	group := g.group
	g.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	return group.Wait()
}

// runLoop issues one request immediately and then once per interval tick.
// Request failures never terminate the loop; only cancellation does.
func (g *LoadGenerator) runLoop(ctx context.Context) error {
	ticker := g.clock.NewTicker(g.interval)
	defer ticker.Stop()

	g.fire(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			g.fire(ctx)
		}
	}
}

func (g *LoadGenerator) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := g.requester.Do(ctx); err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Debug("load request failed", zap.Error(err))
	}
}
