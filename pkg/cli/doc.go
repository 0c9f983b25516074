/*
Package cli provides command-line helpers for the vesta binary: output
formatting, signal handling, and typed command errors.

Output Formatting:

Commands that print structured results (model listings, config dumps)
support text and JSON output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	// ctx is cancelled on the first signal; a second signal kills the
	// process via the default handler.
*/
package cli
