package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ccswitch-hq/ccswitch/pkg/cli"
)

var testCmd = &cobra.Command{
	Use:   "test [NAME...]",
	Short: "Probe channels",
	Long: `Send a minimal chat completion to each channel and report whether it
answered, with latency and failure detail.

Without names every enabled channel is probed. Named channels are probed
even when disabled. Exits 1 when no probed channel is available.`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.startEngine(); err != nil {
		return err
	}
	defer a.close()
	defer a.writeTextfile()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	results, err := a.orchestrator.TestChannels(ctx, args)
	if err != nil {
		return cli.NewCommandError("test", err)
	}

	if err := cli.WriteProbes(a.out, a.format, results); err != nil {
		return err
	}

	for _, r := range results {
		if r.Healthy {
			return nil
		}
	}
	if len(results) == 0 {
		return nil
	}
	return cli.Silent(fmt.Errorf("no channel available"))
}
