// Package scenario provides the background-load state machine used by the
// benchmark harness.
//
// A scenario drives a configurable number of periodically repeating requests
// against the control service, measures the achieved throughput with a
// sliding window, and exposes three lifecycle operations:
//
//   - Start: begin generating load and block until the target rate is
//     observed, or fail with [ErrRateNotReached] once the timeout elapses.
//   - Maintained: a channel that stays silent while the scenario holds and
//     delivers a single [RateTooLowError] if the rate later collapses.
//   - Stop: cancel every request loop and wait for orderly shutdown.
//
// # Load generation
//
// [LoadGenerator] schedules requestsPerSecond × intervalSeconds independent
// loops, each firing once per interval. Individual request failures are
// absorbed (logged and counted as completed attempts); only the aggregate
// rate crossing a threshold escalates into a scenario-level failure.
//
// # Clocks
//
// All loops, the ramp-up wait, and the collapse monitor share one
// clockwork.Clock, so their relative ordering is deterministic for a given
// clock implementation. Tests drive the whole state machine with a fake
// clock.
//
// # Basic usage
//
//	s := scenario.NewReadRequestScenario(scenario.Options{
//		Requester:   scenario.RequesterFunc(client.ListNodesOp),
//		RequestRate: 10,
//		Interval:    10 * time.Second,
//		Timeout:     45 * time.Second,
//	})
//	if err := s.Start(ctx); err != nil {
//		// target rate never reached
//	}
//	defer s.Stop()
//	select {
//	case err := <-s.Maintained():
//		// rate collapsed mid-run
//	case <-done:
//	}
package scenario
