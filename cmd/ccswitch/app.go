package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"ccswitch-hq/ccswitch/pkg/cli"
	"ccswitch-hq/ccswitch/pkg/config"
	"ccswitch-hq/ccswitch/pkg/providers"
	"ccswitch-hq/ccswitch/pkg/routing"
	"ccswitch-hq/ccswitch/pkg/telemetry/logging"
	"ccswitch-hq/ccswitch/pkg/telemetry/metrics"
	"ccswitch-hq/ccswitch/pkg/telemetry/tracing"
)

const shutdownTimeout = 5 * time.Second

// app is what a command needs: the configuration store and logger, and
// for commands that talk to channels, the routing engine.
type app struct {
	store  *config.Store
	logger *logging.Logger
	format cli.OutputFormat
	out    io.Writer

	tracer       *tracing.Tracer
	collector    *metrics.Collector
	client       *providers.Client
	orchestrator *routing.Orchestrator
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

// loadApp opens the configuration, creating it on first use, and
// configures logging from it.
func loadApp(cmd *cobra.Command) (*app, error) {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config file: %w", err)
	}

	store, err := config.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := store.Config().Telemetry.Logging
	level := logCfg.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:     level,
		Format:    logCfg.Format,
		AddSource: logCfg.AddSource,
		Redact:    logCfg.Redact,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())
	store.SetLogger(logger.Slog())

	return &app{
		store:  store,
		logger: logger,
		format: format,
		out:    cmd.OutOrStdout(),
	}, nil
}

// startEngine wires tracing, metrics, the HTTP client, and the orchestrator.
func (a *app) startEngine() error {
	cfg := a.store.Config()
	log := a.logger.Slog()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracer = tracer

	a.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	clientCfg := providers.DefaultClientConfig()
	clientCfg.UserAgent = "ccswitch/" + Version
	a.client = providers.NewClient(clientCfg, log)

	a.orchestrator = routing.NewOrchestrator(a.store,
		providers.NewExecutor(a.client, log),
		providers.NewProber(a.client, log),
		routing.WithLogger(log),
		routing.WithRecorder(a.collector),
		routing.WithTracer(tracer.Tracer()),
	)

	if err := a.collector.RegisterStats(a.orchestrator.Stats().Snapshot); err != nil {
		return fmt.Errorf("failed to register routing stats: %w", err)
	}
	return nil
}

// writeTextfile exports the metrics gathered by this invocation when a
// textfile path is configured.
func (a *app) writeTextfile() {
	if a.collector == nil || !a.collector.Enabled() {
		return
	}
	path := a.store.Config().Telemetry.Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.collector.WriteTextfile(path); err != nil {
		a.logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		return
	}
	a.logger.Debug("metrics textfile written", "path", path)
}

// close flushes spans and releases pooled connections.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}
	if a.client != nil {
		_ = a.client.Close()
	}
}
