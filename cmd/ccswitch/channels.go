package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/cli"
)

var addFlags struct {
	key      string
	model    string
	priority int
	disabled bool
	timeout  int
}

var addCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a channel",
	Long: `Add a chat-completion channel.

URL is the full endpoint requests are POSTed to. Channels with a lower
priority are tried first; a channel without --model serves every model.

Examples:
  ccswitch add primary https://api.example.com/v1/chat/completions --key sk-...
  ccswitch add claude https://proxy.example.com/v1/chat/completions --model claude-3-5-sonnet --priority 1`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List channels in priority order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var removeCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm"},
	Short:   "Remove a channel",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var updateFlags struct {
	url      string
	key      string
	model    string
	priority int
	timeout  int
	enable   bool
	disable  bool
}

var updateCmd = &cobra.Command{
	Use:   "update NAME",
	Short: "Change a channel's settings",
	Long: `Change a channel's settings. Only the flags given are applied.

Examples:
  ccswitch update backup --disable
  ccswitch update primary --priority 2 --timeout 60`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, removeCmd, updateCmd)

	addCmd.Flags().StringVarP(&addFlags.key, "key", "k", "", "API key sent as a bearer token")
	addCmd.Flags().StringVarP(&addFlags.model, "model", "m", "", "model the channel serves (default any)")
	addCmd.Flags().IntVarP(&addFlags.priority, "priority", "p", 0, "priority, lower is tried first")
	addCmd.Flags().BoolVar(&addFlags.disabled, "disabled", false, "add the channel disabled")
	addCmd.Flags().IntVar(&addFlags.timeout, "timeout", 0, "request timeout in seconds (default global timeout)")

	updateCmd.Flags().StringVar(&updateFlags.url, "url", "", "new endpoint URL")
	updateCmd.Flags().StringVarP(&updateFlags.key, "key", "k", "", "new API key")
	updateCmd.Flags().StringVarP(&updateFlags.model, "model", "m", "", "new model, empty for any")
	updateCmd.Flags().IntVarP(&updateFlags.priority, "priority", "p", 0, "new priority")
	updateCmd.Flags().IntVar(&updateFlags.timeout, "timeout", 0, "new request timeout in seconds, 0 for the global timeout")
	updateCmd.Flags().BoolVar(&updateFlags.enable, "enable", false, "enable the channel")
	updateCmd.Flags().BoolVar(&updateFlags.disable, "disable", false, "disable the channel")
	updateCmd.MarkFlagsMutuallyExclusive("enable", "disable")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	ch := channels.Channel{
		Name:           args[0],
		URL:            args[1],
		APIKey:         addFlags.key,
		Model:          addFlags.model,
		Enabled:        !addFlags.disabled,
		Priority:       addFlags.priority,
		TimeoutSeconds: addFlags.timeout,
	}
	if err := a.store.AddChannel(ch); err != nil {
		return cli.NewCommandError("add", err)
	}

	a.logger.Info("channel added", "channel", ch.Name, "priority", ch.Priority)
	fmt.Fprintf(a.out, "Added channel %q (priority %d)\n", ch.Name, ch.Priority)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	return cli.WriteChannels(a.out, a.format, a.store.Channels())
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	if err := a.store.RemoveChannel(args[0]); err != nil {
		return cli.NewCommandError("remove", err)
	}

	a.logger.Info("channel removed", "channel", args[0])
	fmt.Fprintf(a.out, "Removed channel %q\n", args[0])
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	var changes []func(*channels.Channel)

	if flags.Changed("url") {
		changes = append(changes, func(ch *channels.Channel) { ch.URL = updateFlags.url })
	}
	if flags.Changed("key") {
		changes = append(changes, func(ch *channels.Channel) { ch.APIKey = updateFlags.key })
	}
	if flags.Changed("model") {
		changes = append(changes, func(ch *channels.Channel) { ch.Model = updateFlags.model })
	}
	if flags.Changed("priority") {
		changes = append(changes, func(ch *channels.Channel) { ch.Priority = updateFlags.priority })
	}
	if flags.Changed("timeout") {
		changes = append(changes, func(ch *channels.Channel) { ch.TimeoutSeconds = updateFlags.timeout })
	}
	if flags.Changed("enable") && updateFlags.enable {
		changes = append(changes, func(ch *channels.Channel) { ch.Enabled = true })
	}
	if flags.Changed("disable") && updateFlags.disable {
		changes = append(changes, func(ch *channels.Channel) { ch.Enabled = false })
	}
	if len(changes) == 0 {
		return cli.NewConfigError("flags", "nothing to update")
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	err = a.store.UpdateChannel(args[0], func(ch *channels.Channel) {
		for _, change := range changes {
			change(ch)
		}
	})
	if err != nil {
		return cli.NewCommandError("update", err)
	}

	a.logger.Info("channel updated", "channel", args[0], "changes", len(changes))
	fmt.Fprintf(a.out, "Updated channel %q\n", args[0])
	return nil
}
