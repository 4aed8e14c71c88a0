package config

import (
	"errors"
	"strconv"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// flagBindings maps viper keys to flag names. Flag values set on the command
// line win over the config file; flag defaults fill remaining gaps.
var flagBindings = map[string]string{
	"control_service":       "control-service",
	"control_port":          "control-port",
	"cluster_file":          "cluster-file",
	"num_nodes":             "nodes",
	"certs_dir":             "certs-dir",
	"ca_tool":               "ca-tool",
	"api_user":              "api-user",
	"generate_certs":        "generate-certs",
	"request_timeout":       "request-timeout",
	"scenario.request_rate": "request-rate",
	"scenario.interval":     "interval",
	"scenario.timeout":      "scenario-timeout",
	"scenario.sample_size":  "sample-size",
	"bench.samples":         "samples",
	"bench.sample_rate":     "sample-rate",
	"thresholds":            "threshold",
	"json_output":           "json-output",
	"log_level":             "log-level",
	"tracing.enabled":       "tracing",
	"tracing.endpoint":      "trace-endpoint",
	"tracing.protocol":      "trace-protocol",
	"tracing.sample_rate":   "trace-sample-rate",
	"tracing.insecure":      "trace-insecure",
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			_ = cmd.Usage()
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			_ = cmd.Usage()
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	for key, flag := range flagBindings {
		if err := v.BindPFlag(key, flagSet.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{ConfigFile: configPath}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// A cluster file can stand in for explicit cluster flags.
	if cfg.ClusterFile != "" {
		cluster, err := LoadCluster(cfg.ClusterFile)
		if err != nil {
			return nil, err
		}
		if !flagSet.Changed("control-service") && cfg.ControlService == "" {
			cfg.ControlService = cluster.ControlService
		}
		if !flagSet.Changed("nodes") && cfg.NumNodes == 0 {
			cfg.NumNodes = len(cluster.Nodes)
		}
	}

	return cfg, nil
}
