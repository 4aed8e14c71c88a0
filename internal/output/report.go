package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/rateforge/rateforge/internal/bench"
	"github.com/rateforge/rateforge/internal/threshold"
)

// PrintReport outputs a human-readable summary of a benchmark run.
func PrintReport(w io.Writer, result bench.Result, thresholds []threshold.Result) {
	stats := result.Stats

	fmt.Fprintln(w, "\n--- Benchmark Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", result.RunID)
	fmt.Fprintf(w, "Started:           %s\n", result.Start.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Total Samples:     %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Samples/sec:       %.2f\n", stats.SamplesPerSec)
	fmt.Fprintln(w, "\nSample Latency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		types := make([]string, 0, len(stats.Errors))
		for errType := range stats.Errors {
			types = append(types, errType)
		}
		sort.Strings(types)
		for _, errType := range types {
			fmt.Fprintf(w, "  - %s: %d\n", errType, stats.Errors[errType])
		}
	}

	if len(thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, r := range thresholds {
			fmt.Fprintf(w, "  %s\n", r.Message)
		}
	}
}

// jsonReport is the JSON wire form of a run plus its threshold outcomes.
type jsonReport struct {
	bench.Result
	Thresholds []jsonThreshold `json:"thresholds,omitempty"`
	Passed     *bool           `json:"thresholds_passed,omitempty"`
}

type jsonThreshold struct {
	Expression string  `json:"expression"`
	Actual     float64 `json:"actual"`
	Pass       bool    `json:"pass"`
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, result bench.Result, thresholds []threshold.Result) error {
	report := jsonReport{Result: result}
	if len(thresholds) > 0 {
		report.Thresholds = make([]jsonThreshold, 0, len(thresholds))
		for _, r := range thresholds {
			report.Thresholds = append(report.Thresholds, jsonThreshold{
				Expression: r.Threshold.Raw,
				Actual:     r.Actual,
				Pass:       r.Pass,
			})
		}
		passed := threshold.AllPassed(thresholds)
		report.Passed = &passed
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
