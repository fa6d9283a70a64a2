package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"ccswitch-hq/ccswitch/pkg/cli"
	"ccswitch-hq/ccswitch/pkg/routing"
)

var requestFlags struct {
	model       string
	system      string
	maxTokens   int
	temperature float64
	probe       bool
	json        bool
}

var requestCmd = &cobra.Command{
	Use:   "request PROMPT",
	Short: "Send a prompt through the first working channel",
	Long: `Send a prompt to the eligible channels in priority order until one
answers. The response content is printed together with the channel that
served it and any channels that failed before it.

When every attempt fails, each attempt is listed with its error kind and
the command exits 1. Ctrl-C cancels the request.

Examples:
  ccswitch request "Hello"
  ccswitch request "Translate to French: good morning" --model gpt-4o-mini --temperature 0
  ccswitch request "Ping" --probe --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)

	requestCmd.Flags().StringVarP(&requestFlags.model, "model", "m", "", "model to request (default: default_model from config)")
	requestCmd.Flags().StringVarP(&requestFlags.system, "system", "s", "", "system prompt")
	requestCmd.Flags().IntVar(&requestFlags.maxTokens, "max-tokens", routing.DefaultMaxTokens, "maximum tokens to generate")
	requestCmd.Flags().Float64Var(&requestFlags.temperature, "temperature", routing.DefaultTemperature, "sampling temperature")
	requestCmd.Flags().BoolVar(&requestFlags.probe, "probe", false, "probe each channel before sending the request")
	requestCmd.Flags().BoolVar(&requestFlags.json, "json", false, "print the result as JSON (same as --output json)")
}

func runRequest(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if requestFlags.json {
		a.format = cli.FormatJSON
	}
	if requestFlags.maxTokens <= 0 {
		return cli.NewConfigError("max-tokens", "must be positive")
	}

	if err := a.startEngine(); err != nil {
		return err
	}
	defer a.close()
	defer a.writeTextfile()

	spec := &routing.RequestSpec{
		Model:  requestFlags.model,
		Prompt: strings.Join(args, " "),
		System: requestFlags.system,
		Probe:  requestFlags.probe,
	}
	if cmd.Flags().Changed("max-tokens") {
		spec.MaxTokens = &requestFlags.maxTokens
	}
	if cmd.Flags().Changed("temperature") {
		spec.Temperature = &requestFlags.temperature
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	result, err := a.orchestrator.Route(ctx, spec)
	if err != nil {
		var routeErr *routing.RouteError
		if !errors.As(err, &routeErr) {
			return cli.NewCommandError("request", err)
		}
		if werr := cli.WriteRouteError(a.out, a.format, routeErr); werr != nil {
			return werr
		}
		return cli.Silent(err)
	}

	return cli.WriteRoute(a.out, a.format, result)
}
