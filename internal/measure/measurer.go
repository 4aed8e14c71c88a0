// Package measure provides a sliding-window requests-per-second estimator.
package measure

import (
	"math"
	"sync"

	"github.com/jonboulle/clockwork"
)

// DefaultSampleSize is the number of whole seconds averaged by Rate.
const DefaultSampleSize = 5

// RateMeasurer tracks completed-request counts per wall-clock second and
// reports the mean rate over the last sampleSize full seconds.
type RateMeasurer struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	sampleSize int
	counts     []int
	count      int
	lastSecond int64
}

// NewRateMeasurer creates a measurer bound to the given clock.
// If sampleSize <= 0, DefaultSampleSize is used.
func NewRateMeasurer(clock clockwork.Clock, sampleSize int) *RateMeasurer {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &RateMeasurer{
		clock:      clock,
		sampleSize: sampleSize,
		lastSecond: clock.Now().Unix(),
	}
}

// RecordSample registers one completed request attempt. Counts accumulated
// within a second are flushed to the window only when the next second-boundary
// crossing is observed, so the current second's count is always in flight.
func (m *RateMeasurer) RecordSample() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().Unix()
	if now > m.lastSecond {
		m.counts = append(m.counts, m.count)
		if len(m.counts) > m.sampleSize {
			m.counts = m.counts[len(m.counts)-m.sampleSize:]
		}
		m.lastSecond = now
		m.count = 0
	}
	m.count++
}

// Rate returns the mean requests per second over the sample window.
// Until the window holds a full sampleSize seconds of history it returns NaN;
// callers must treat NaN as "not yet at target", never as zero.
func (m *RateMeasurer) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.counts) != m.sampleSize {
		return math.NaN()
	}
	sum := 0
	for _, c := range m.counts {
		sum += c
	}
	return float64(sum) / float64(m.sampleSize)
}
