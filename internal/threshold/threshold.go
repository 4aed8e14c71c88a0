// Package threshold evaluates pass/fail assertions against benchmark stats.
package threshold

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rateforge/rateforge/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // "sample_latency", "sample_failed", "samples"
	Aggregate string  // "p50", "p90", "p99", "avg", "min", "max", "rate", "count"
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64 // the value to compare against
	Raw       string  // original threshold string for display
}

// Result is the outcome of evaluating one threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluate checks all thresholds against the provided stats.
func Evaluate(thresholds []Threshold, stats metrics.Stats) []Result {
	if len(thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		results = append(results, evaluateOne(t, stats))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, stats metrics.Stats) Result {
	actual, err := extractValue(t, stats)
	if err != nil {
		return Result{Threshold: t, Pass: false, Message: fmt.Sprintf("error: %v", err)}
	}

	pass := compare(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string.
// Supported formats:
//   - "sample_latency:p99 < 500"  (latency percentile in ms)
//   - "sample_latency:avg < 200"  (average latency in ms)
//   - "sample_failed:rate < 0.01" (failure rate as decimal)
//   - "sample_failed:count < 10"  (failure count)
//   - "samples:rate > 100"        (samples per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'sample_latency:p99 < 500')", s)
	}

	metric, aggregate, operator := matches[1], matches[2], matches[3]
	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}

	if !validMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: sample_latency, sample_failed, samples)", metric)
	}
	if !validAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: p50, p90, p99, avg, min, max, rate, count)", aggregate)
	}
	if !validOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, reporting every failure.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

func validMetric(metric string) bool {
	switch metric {
	case "sample_latency", "sample_failed", "samples":
		return true
	}
	return false
}

func validAggregate(aggregate string) bool {
	switch aggregate {
	case "p50", "p90", "p99", "avg", "min", "max", "rate", "count":
		return true
	}
	return false
}

func validOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func extractValue(t Threshold, stats metrics.Stats) (float64, error) {
	switch t.Metric {
	case "sample_latency":
		return latencyValue(t.Aggregate, stats)
	case "sample_failed":
		return failureValue(t.Aggregate, stats)
	case "samples":
		return sampleValue(t.Aggregate, stats)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func latencyValue(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "p50":
		return stats.P50LatencyMs, nil
	case "p90":
		return stats.P90LatencyMs, nil
	case "p99":
		return stats.P99LatencyMs, nil
	case "avg":
		return stats.MeanLatencyMs, nil
	case "min":
		return stats.MinLatencyMs, nil
	case "max":
		return stats.MaxLatencyMs, nil
	default:
		return 0, fmt.Errorf("aggregate %q not valid for sample_latency", aggregate)
	}
}

func failureValue(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "rate":
		if stats.Total == 0 {
			return 0, nil
		}
		return float64(stats.Failures) / float64(stats.Total), nil
	case "count":
		return float64(stats.Failures), nil
	default:
		return 0, fmt.Errorf("aggregate %q not valid for sample_failed", aggregate)
	}
}

func sampleValue(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "rate":
		return stats.SamplesPerSec, nil
	case "count":
		return float64(stats.Total), nil
	default:
		return 0, fmt.Errorf("aggregate %q not valid for samples", aggregate)
	}
}

func compare(actual float64, operator string, value float64) bool {
	switch operator {
	case "<":
		return actual < value
	case "<=":
		return actual <= value
	case ">":
		return actual > value
	case ">=":
		return actual >= value
	case "==":
		return actual == value
	default:
		return false
	}
}
