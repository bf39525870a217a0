package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the pipegraph CLI with the given arguments and returns an
// error if the command fails. Logs go to stderr; --verbose (-v) switches to
// debug level and logs engine, cache, group and HTTP events.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(ctx, os.Args[1:]); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, os.Stderr, args)
}

func execute(ctx context.Context, logOut io.Writer, args []string) error {
	var verbose bool

	c := New(logOut, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
			registerLogHooks(c.Logger)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return loadConfig(cmd, args)
	}

	return root.ExecuteContext(ctx)
}
