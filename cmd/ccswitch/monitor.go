package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ccswitch-hq/ccswitch/pkg/cli"
	"ccswitch-hq/ccswitch/pkg/config"
	"ccswitch-hq/ccswitch/pkg/monitor"
	"ccswitch-hq/ccswitch/pkg/server"
	"ccswitch-hq/ccswitch/pkg/telemetry/health"
)

// reloadDebounce is how long the config file must be quiet before a reload.
const reloadDebounce = 500 * time.Millisecond

var monitorFlags struct {
	interval    time.Duration
	maxBackoff  time.Duration
	metricsAddr string
	noWatch     bool
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Probe channels periodically and serve metrics",
	Long: `Probe every enabled channel on an interval until interrupted.

A failing channel is probed less often, doubling its interval after each
failure up to --max-backoff, and returns to the base interval once it
answers again. Edits to the config file are picked up without a restart.

The metrics address serves:
  /metrics   Prometheus metrics
  /health    liveness
  /ready     channel health (503 when no channel is available)
  /version   build information

Examples:
  ccswitch monitor
  ccswitch monitor --interval 1m --metrics-addr :9464`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorFlags.interval, "interval", monitor.DefaultInterval, "probe interval for healthy channels")
	monitorCmd.Flags().DurationVar(&monitorFlags.maxBackoff, "max-backoff", 0, "longest interval for a failing channel (default 10x interval)")
	monitorCmd.Flags().StringVar(&monitorFlags.metricsAddr, "metrics-addr", "127.0.0.1:9464", "address for /metrics and health endpoints, empty to disable")
	monitorCmd.Flags().BoolVar(&monitorFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorFlags.interval <= 0 {
		return cli.NewConfigError("interval", "must be positive")
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.startEngine(); err != nil {
		return err
	}
	defer a.close()

	log := a.logger.Slog()
	board := health.NewBoard()
	mon := monitor.New(a.orchestrator, a.store, board, monitor.Options{
		Interval:   monitorFlags.interval,
		MaxBackoff: monitorFlags.maxBackoff,
		OnForget:   a.collector.ForgetChannel,
		Logger:     log,
	})

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mon.Run(gctx)
	})

	if monitorFlags.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.collector.Handler())
		health.Register(mux, board, health.NewVersionInfo(Version, GitCommit, BuildDate))

		srv := server.New(monitorFlags.metricsAddr, mux, log)
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	if !monitorFlags.noWatch {
		watcher, err := config.NewWatcher(a.store.Path(), reloadDebounce, log)
		if err != nil {
			return fmt.Errorf("failed to watch config file: %w", err)
		}
		defer watcher.Stop()

		g.Go(func() error {
			return watcher.Watch(gctx, func() error {
				if err := a.store.Reload(); err != nil {
					return err
				}
				mon.Trigger()
				return nil
			})
		})
	}

	reg, _ := a.store.Snapshot()
	fmt.Fprintf(a.out, "Monitoring %d channels every %s", len(reg.List()), monitorFlags.interval)
	if monitorFlags.metricsAddr != "" {
		fmt.Fprintf(a.out, ", metrics on http://%s/metrics", monitorFlags.metricsAddr)
	}
	fmt.Fprintln(a.out, " (Ctrl-C to stop)")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("monitor", err)
	}
	return nil
}
