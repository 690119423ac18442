package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd builds the booker command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "booker",
		Short:   "Contract, benchmark and load harness for the restful-booker API",
		Version: version,
		Long: `Booker verifies a restful-booker deployment: contract tests check statuses
and response schemas, bench times individual calls, and load, swarm and
attack drive concurrent traffic and report latency summaries.

Settings come from defaults, an optional YAML or JSON file (--config), the
environment (BASE_URL, USERS, DURATION, REQUEST_TIMEOUT, BOOKER_USERNAME,
BOOKER_PASSWORD) and flags, each overriding the previous.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "Configuration file (YAML or JSON)")
	pf.String("base-url", "", "API base URL")
	pf.Duration("timeout", 0, "Per-request timeout")
	pf.String("username", "", "Admin username for /auth")
	pf.String("password", "", "Admin password for /auth")
	pf.CountP("verbose", "v", "Log verbosity (-v info, -vv debug)")
	pf.StringP("format", "f", "json", "Output format: json or text")

	root.AddCommand(
		newTestCmd(),
		newBenchCmd(),
		newLoadCmd(),
		newSwarmCmd(),
		newAttackCmd(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted. Errors are printed to stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
