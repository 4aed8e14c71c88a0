package measure_test

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rateforge/rateforge/internal/measure"
)

// TestRateUndefinedUntilWindowFull ensures partial history yields NaN, not zero.
func TestRateUndefinedUntilWindowFull(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	m := measure.NewRateMeasurer(clock, 5)

	if !math.IsNaN(m.Rate()) {
		t.Fatalf("expected NaN with no samples, got %v", m.Rate())
	}

	// Four full seconds of samples: still one short of the window.
	for sec := 0; sec < 4; sec++ {
		clock.Advance(time.Second)
		m.RecordSample()
	}
	if !math.IsNaN(m.Rate()) {
		t.Fatalf("expected NaN with partial window, got %v", m.Rate())
	}
}

// TestRateIsMeanOfFullWindow records a known pattern and checks the mean.
func TestRateIsMeanOfFullWindow(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	m := measure.NewRateMeasurer(clock, 3)

	// Three samples in the first second, then one per second. The first
	// boundary crossing flushes the initial accumulator.
	m.RecordSample()
	m.RecordSample()
	m.RecordSample()
	for sec := 0; sec < 3; sec++ {
		clock.Advance(time.Second)
		m.RecordSample()
	}
	// Window now holds [3, 1, 1].
	got := m.Rate()
	want := 5.0 / 3.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("rate = %v, want %v", got, want)
	}
}

// TestWindowSlides verifies FIFO eviction once the window is full.
func TestWindowSlides(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	m := measure.NewRateMeasurer(clock, 2)

	// Second 0: 4 samples. Seconds 1..3: 2 samples each.
	for i := 0; i < 4; i++ {
		m.RecordSample()
	}
	for sec := 0; sec < 3; sec++ {
		clock.Advance(time.Second)
		m.RecordSample()
		m.RecordSample()
	}
	// Flushed counts so far: [4, 2, 2]; window keeps the last two.
	if got := m.Rate(); got != 2.0 {
		t.Fatalf("rate = %v, want 2.0 after eviction", got)
	}
}

// TestSamplesWithinSecondCoalesce checks that no flush happens without a
// second-boundary crossing.
func TestSamplesWithinSecondCoalesce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	m := measure.NewRateMeasurer(clock, 1)

	for i := 0; i < 10; i++ {
		clock.Advance(50 * time.Millisecond)
		m.RecordSample()
	}
	// Only 500ms elapsed: nothing flushed yet.
	if !math.IsNaN(m.Rate()) {
		t.Fatalf("expected NaN before any boundary crossing, got %v", m.Rate())
	}

	clock.Advance(time.Second)
	m.RecordSample()
	if got := m.Rate(); got != 10.0 {
		t.Fatalf("rate = %v, want 10.0", got)
	}
}

// TestGapBetweenSamplesFlushesOnce documents that skipping several seconds
// between samples still produces a single flushed bucket.
func TestGapBetweenSamplesFlushesOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	m := measure.NewRateMeasurer(clock, 1)

	m.RecordSample()
	clock.Advance(5 * time.Second)
	m.RecordSample()
	if got := m.Rate(); got != 1.0 {
		t.Fatalf("rate = %v, want 1.0", got)
	}
}
