// Package config loads and validates benchmark run configuration from
// files and command-line flags.
package config

import (
	"fmt"
	"time"
)

// Config is the full configuration of one benchmark run.
type Config struct {
	// Cluster under test.
	ControlService string `mapstructure:"control_service"` // control service hostname
	ControlPort    int    `mapstructure:"control_port"`
	ClusterFile    string `mapstructure:"cluster_file"` // optional cluster topology YAML
	NumNodes       int    `mapstructure:"num_nodes"`

	// Certificate provisioning.
	CertsDir      string `mapstructure:"certs_dir"`
	CATool        string `mapstructure:"ca_tool"`
	APIUser       string `mapstructure:"api_user"`
	GenerateCerts bool   `mapstructure:"generate_certs"`

	// Per-request timeout against the control service.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	Scenario   ScenarioConfig `mapstructure:"scenario"`
	Bench      BenchConfig    `mapstructure:"bench"`
	Thresholds []string       `mapstructure:"thresholds"`
	Tracing    TracingConfig  `mapstructure:"tracing"`

	JSONOutput bool   `mapstructure:"json_output"`
	LogLevel   string `mapstructure:"log_level"`
	ConfigFile string `mapstructure:"-"`
}

// ScenarioConfig shapes the background read-request load.
type ScenarioConfig struct {
	RequestRate int           `mapstructure:"request_rate"` // generated and required req/s
	Interval    time.Duration `mapstructure:"interval"`     // spacing of each loop's ticks
	Timeout     time.Duration `mapstructure:"timeout"`      // max ramp-up time
	SampleSize  int           `mapstructure:"sample_size"`  // sliding window seconds
}

// BenchConfig shapes the measured sampling pass.
type BenchConfig struct {
	Samples    int `mapstructure:"samples"`
	SampleRate int `mapstructure:"sample_rate"` // max samples per second (0 = unpaced)
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.ControlService == "" {
		return fmt.Errorf("control service hostname is required (--control-service or cluster file)")
	}
	if c.ControlPort < 0 || c.ControlPort > 65535 {
		return fmt.Errorf("control_port %d out of range", c.ControlPort)
	}
	if c.Scenario.RequestRate <= 0 {
		return fmt.Errorf("scenario request_rate must be positive, got %d", c.Scenario.RequestRate)
	}
	if c.Scenario.Interval < time.Second {
		return fmt.Errorf("scenario interval must be at least 1s, got %s", c.Scenario.Interval)
	}
	if c.Scenario.Interval%time.Second != 0 {
		return fmt.Errorf("scenario interval must be a whole number of seconds, got %s", c.Scenario.Interval)
	}
	if c.Scenario.Timeout <= 0 {
		return fmt.Errorf("scenario timeout must be positive, got %s", c.Scenario.Timeout)
	}
	if c.Scenario.SampleSize <= 0 {
		return fmt.Errorf("scenario sample_size must be positive, got %d", c.Scenario.SampleSize)
	}
	if c.Bench.Samples <= 0 {
		return fmt.Errorf("bench samples must be positive, got %d", c.Bench.Samples)
	}
	if c.Bench.SampleRate < 0 {
		return fmt.Errorf("bench sample_rate cannot be negative, got %d", c.Bench.SampleRate)
	}
	if c.GenerateCerts && c.CertsDir == "" {
		return fmt.Errorf("certs_dir is required when generate_certs is set")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate)
	}
	return nil
}
