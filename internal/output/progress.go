package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rateforge/rateforge/internal/metrics"
)

// ProgressReporter displays real-time sampling progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	samples   int
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. samples is the total expected sample count, used to show a
// completion fraction; pass 0 if unknown.
func NewProgressReporter(collector *metrics.Collector, samples int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		samples:   samples,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			elapsed := time.Since(p.start)
			stats := p.collector.Stats(elapsed)
			line := fmt.Sprintf("\rSamples: %d", stats.Total)
			if p.samples > 0 {
				line = fmt.Sprintf("\rSamples: %d/%d", stats.Total, p.samples)
			}
			line += fmt.Sprintf(" | Failures: %d | P99: %.1fms | Rate: %.1f/s",
				stats.Failures, stats.P99LatencyMs, stats.SamplesPerSec)
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
