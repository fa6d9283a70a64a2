/*
Package cli provides the output and process helpers shared by the ccswitch
commands.

Output:

Command results are printed as aligned tables or, with --output json, as
indented JSON. API keys are always masked.

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.WriteChannels(os.Stdout, format, registry.All())

Failed requests print every attempt and are then returned wrapped with
Silent, so main exits 1 without printing the error twice.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()
	// ctx is cancelled on SIGINT or SIGTERM
*/
package cli
