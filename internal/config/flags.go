package config

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rateforge",
		Short:         "Benchmark a cluster control service under sustained read-request load",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Cluster under test
	flags.String("control-service", "", "Control service hostname")
	flags.Int("control-port", 4523, "Control service API port")
	flags.String("cluster-file", "", "Path to cluster topology YAML")
	flags.IntP("nodes", "n", 0, "Number of nodes in the cluster")

	// Certificates
	flags.String("certs-dir", "", "Directory holding (or receiving) cluster certificates")
	flags.String("ca-tool", "flocker-ca", "Certificate authority command to invoke")
	flags.String("api-user", "benchmark", "API user name for the client certificate")
	flags.Bool("generate-certs", false, "Generate certificates before the run")

	// Background load scenario
	flags.IntP("request-rate", "r", 10, "Read requests per second to generate and require")
	flags.Duration("interval", 10*time.Second, "Tick interval of each request loop (whole seconds)")
	flags.Duration("scenario-timeout", 45*time.Second, "Max time for the load to reach the target rate")
	flags.Int("sample-size", 5, "Sliding window size in seconds for the rate measurement")

	// Measured sampling pass
	flags.IntP("samples", "s", 10, "Number of measured samples to take")
	flags.Int("sample-rate", 0, "Max measured samples per second (0 means unpaced)")

	// Assertions and output
	flags.StringSlice("threshold", nil, "Pass/fail assertion, e.g. 'sample_latency:p99 < 500' (repeatable)")
	flags.Bool("json-output", false, "Emit JSON formatted results")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	// Request handling
	flags.Duration("request-timeout", 30*time.Second, "Per-request timeout against the control service")

	// Tracing
	flags.Bool("tracing", false, "Enable OpenTelemetry tracing")
	flags.String("trace-endpoint", "", "OTLP endpoint (defaults to OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("trace-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")
	flags.Bool("trace-insecure", false, "Disable TLS for the OTLP exporter")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}
