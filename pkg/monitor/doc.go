// Package monitor probes channels on a schedule and records their health.
//
// Every enabled channel is probed once per interval. After a failed probe
// the channel waits twice the interval, then four times, and so on up to
// the configured maximum; one healthy probe returns it to the base
// interval. Channels that disappear from the configuration are dropped
// from the health board and reported through Options.OnForget so their
// metric series can be deleted.
//
//	mon := monitor.New(orchestrator, store, board, monitor.Options{
//		Interval: 30 * time.Second,
//		OnForget: collector.ForgetChannel,
//	})
//	go mon.Run(ctx)
//
// Call Trigger after a configuration reload to probe new channels without
// waiting for the next tick.
package monitor
