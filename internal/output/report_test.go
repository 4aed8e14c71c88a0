package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rateforge/rateforge/internal/bench"
	"github.com/rateforge/rateforge/internal/metrics"
	"github.com/rateforge/rateforge/internal/threshold"
)

func sampleResult(t *testing.T) bench.Result {
	t.Helper()
	c := metrics.NewCollector()
	for i := 0; i < 9; i++ {
		c.Record(100*time.Millisecond, nil)
	}
	c.Record(400*time.Millisecond, errors.New("boom"))
	return bench.Result{
		RunID: "01J8ZACME5XAMPLE0000000000",
		Start: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Stats: c.Stats(10 * time.Second),
	}
}

func TestPrintReport(t *testing.T) {
	result := sampleResult(t)
	thresholds := threshold.Evaluate(mustParse(t, "sample_failed:count < 5", "samples:count >= 10"), result.Stats)

	var buf bytes.Buffer
	PrintReport(&buf, result, thresholds)
	out := buf.String()

	for _, want := range []string{
		"Run ID:            01J8ZACME5XAMPLE0000000000",
		"Total Samples:     10",
		"Successful:        9",
		"Failed:            1",
		"Errors:",
		"*errors.errorString: 1",
		"Thresholds:",
		"sample_failed:count < 5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportNoThresholds(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleResult(t), nil)
	if strings.Contains(buf.String(), "Thresholds:") {
		t.Error("threshold section printed with no thresholds")
	}
}

func TestPrintJSONReport(t *testing.T) {
	result := sampleResult(t)
	thresholds := threshold.Evaluate(mustParse(t, "sample_failed:rate < 0.05"), result.Stats)

	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, result, thresholds); err != nil {
		t.Fatalf("PrintJSONReport: %v", err)
	}

	var decoded struct {
		RunID string `json:"run_id"`
		Stats struct {
			Total int64 `json:"total"`
		} `json:"stats"`
		Thresholds []struct {
			Expression string  `json:"expression"`
			Actual     float64 `json:"actual"`
			Pass       bool    `json:"pass"`
		} `json:"thresholds"`
		Passed *bool `json:"thresholds_passed"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.RunID != result.RunID {
		t.Errorf("run id = %q", decoded.RunID)
	}
	if decoded.Stats.Total != 10 {
		t.Errorf("total = %d", decoded.Stats.Total)
	}
	if len(decoded.Thresholds) != 1 || decoded.Thresholds[0].Pass {
		t.Errorf("thresholds = %+v", decoded.Thresholds)
	}
	if decoded.Passed == nil || *decoded.Passed {
		t.Errorf("thresholds_passed = %v", decoded.Passed)
	}
}

func TestPrintJSONReportOmitsEmptyThresholds(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleResult(t), nil); err != nil {
		t.Fatalf("PrintJSONReport: %v", err)
	}
	if strings.Contains(buf.String(), "thresholds") {
		t.Errorf("thresholds keys present in empty report:\n%s", buf.String())
	}
}

func mustParse(t *testing.T, exprs ...string) []threshold.Threshold {
	t.Helper()
	parsed, err := threshold.ParseMultiple(exprs)
	if err != nil {
		t.Fatalf("parse thresholds: %v", err)
	}
	return parsed
}
