package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rateforge/rateforge/internal/bench"
	"github.com/rateforge/rateforge/internal/certs"
	"github.com/rateforge/rateforge/internal/config"
	"github.com/rateforge/rateforge/internal/control"
	"github.com/rateforge/rateforge/internal/logging"
	"github.com/rateforge/rateforge/internal/metrics"
	"github.com/rateforge/rateforge/internal/output"
	"github.com/rateforge/rateforge/internal/scenario"
	"github.com/rateforge/rateforge/internal/threshold"
	"github.com/rateforge/rateforge/internal/tracing"
)

const progressInterval = time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	client, err := newControlClient(ctx, cfg, provider, logger)
	if err != nil {
		return err
	}

	version, err := client.Version(ctx)
	if err != nil {
		return fmt.Errorf("reach control service %s: %w", cfg.ControlService, err)
	}
	logger.Info("connected to control service",
		zap.String("host", cfg.ControlService),
		zap.String("version", version),
	)

	listNodes := scenario.RequesterFunc(func(ctx context.Context) error {
		_, err := client.ListNodes(ctx)
		return err
	})

	scn := scenario.NewReadRequestScenario(scenario.Options{
		Requester:   listNodes,
		RequestRate: cfg.Scenario.RequestRate,
		Interval:    cfg.Scenario.Interval,
		Timeout:     cfg.Scenario.Timeout,
		SampleSize:  cfg.Scenario.SampleSize,
		Logger:      logger,
	})

	collector := metrics.NewCollector()
	runner := bench.New(bench.Options{
		Operation:  listNodes,
		Samples:    cfg.Bench.Samples,
		SampleRate: cfg.Bench.SampleRate,
		Collector:  collector,
		Logger:     logger,
	})

	var progress *output.ProgressReporter
	if !cfg.JSONOutput {
		progress = output.NewProgressReporter(collector, cfg.Bench.Samples, progressInterval, os.Stdout)
		progress.Start()
	}

	result, runErr := runner.Run(ctx, scn)

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}

	results := threshold.Evaluate(thresholds, result.Stats)
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, result, results); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, result, results)
	}

	if runErr != nil {
		return runErr
	}
	if !threshold.AllPassed(results) {
		return errors.New("one or more thresholds failed")
	}
	if result.Stats.Failures > 0 {
		return fmt.Errorf("%d samples failed", result.Stats.Failures)
	}
	return nil
}

// newControlClient builds the REST client, generating or loading cluster
// certificates when a certs directory is configured.
func newControlClient(ctx context.Context, cfg *config.Config, provider *tracing.Provider, logger *zap.Logger) (*control.Client, error) {
	opt := control.Options{
		Host:    cfg.ControlService,
		Port:    cfg.ControlPort,
		Timeout: cfg.RequestTimeout,
		Tracer:  provider.Tracer(),
	}

	if cfg.CertsDir != "" {
		var (
			creds *certs.Certificates
			err   error
		)
		if cfg.GenerateCerts {
			logger.Info("generating cluster certificates",
				zap.String("dir", cfg.CertsDir),
				zap.Int("nodes", cfg.NumNodes),
			)
			creds, err = certs.Generate(ctx, certs.Options{
				Dir:             cfg.CertsDir,
				ControlHostname: cfg.ControlService,
				User:            cfg.APIUser,
				NumNodes:        cfg.NumNodes,
				Tool:            cfg.CATool,
			})
		} else {
			creds, err = certs.FromDirectory(cfg.CertsDir, cfg.APIUser)
		}
		if err != nil {
			return nil, fmt.Errorf("cluster certificates: %w", err)
		}
		opt.CACertPath = creds.Cluster.CertPath
		opt.CertPath = creds.User.CertPath
		opt.KeyPath = creds.User.KeyPath
	}

	return control.NewClient(opt)
}
