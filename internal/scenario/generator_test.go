package scenario_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rateforge/rateforge/internal/scenario"
)

// waitFor polls cond on a real-time deadline; ticks delivered by the fake
// clock are consumed asynchronously by the generator's loops.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestLoadGeneratorLoopCount(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	cases := []struct {
		perSecond int
		interval  time.Duration
		want      int
	}{
		{perSecond: 2, interval: time.Second, want: 2},
		{perSecond: 10, interval: 10 * time.Second, want: 100},
		{perSecond: 1, interval: 3 * time.Second, want: 3},
	}
	for _, tc := range cases {
		g := scenario.NewLoadGenerator(scenario.RequesterFunc(func(context.Context) error { return nil }),
			tc.perSecond, tc.interval, clock, nil)
		if got := g.Loops(); got != tc.want {
			t.Errorf("Loops(%d, %s) = %d, want %d", tc.perSecond, tc.interval, got, tc.want)
		}
	}
}

func TestLoadGeneratorFiresEachLoopPerInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	var calls atomic.Int64
	g := scenario.NewLoadGenerator(scenario.RequesterFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), 2, time.Second, clock, nil)

	g.Start(context.Background())
	defer g.Stop()

	// Both loops fire once immediately on start.
	waitFor(t, func() bool { return calls.Load() == 2 })

	clock.Advance(time.Second)
	waitFor(t, func() bool { return calls.Load() == 4 })

	clock.Advance(time.Second)
	waitFor(t, func() bool { return calls.Load() == 6 })
}

func TestLoadGeneratorSwallowsRequestFailures(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	var calls atomic.Int64
	g := scenario.NewLoadGenerator(scenario.RequesterFunc(func(context.Context) error {
		calls.Add(1)
		return context.DeadlineExceeded // arbitrary error
	}), 1, time.Second, clock, nil)

	g.Start(context.Background())

	waitFor(t, func() bool { return calls.Load() == 1 })
	clock.Advance(time.Second)
	// A failing request must not stop the loop.
	waitFor(t, func() bool { return calls.Load() == 2 })

	if err := g.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestLoadGeneratorStopHaltsTicks(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	var calls atomic.Int64
	g := scenario.NewLoadGenerator(scenario.RequesterFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), 2, time.Second, clock, nil)

	g.Start(context.Background())
	waitFor(t, func() bool { return calls.Load() == 2 })

	if err := g.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	settled := calls.Load()

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		time.Sleep(time.Millisecond)
	}
	if after := calls.Load(); after != settled {
		t.Fatalf("loops fired after Stop: %d -> %d", settled, after)
	}
}

func TestLoadGeneratorStopBeforeStart(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	g := scenario.NewLoadGenerator(scenario.RequesterFunc(func(context.Context) error { return nil }),
		1, time.Second, clock, nil)
	if err := g.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
}
