package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/booker/internal/load"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run concurrent workflow iterations until a deadline",
		Long: `Start --users workers, each looping ping, auth, create, get and delete
until --duration has elapsed, then print count, mean and p95 per operation.
p95 is reported once an operation has at least 100 samples.

  booker load --users 20 --duration 1m --format text`,
		Args: cobra.NoArgs,
		RunE: runLoad,
	}
	cmd.Flags().IntP("users", "u", 0, "Concurrent workers (env USERS, default 5)")
	cmd.Flags().StringP("duration", "d", "", "Run duration, e.g. 30s or 30 (env DURATION, default 15s)")
	cmd.Flags().Duration("pacing", 0, "Pause between iterations")
	addMetricsFlag(cmd)
	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	exporter, stopMetrics, err := startMetrics(cmd, env.logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	var observers []load.Observer
	if exporter != nil {
		observers = append(observers, exporter)
	}
	samples := load.NewSamples(observers...)

	runner := load.NewRunner(env.client, samples, load.Config{
		Users:       env.cfg.Users,
		Duration:    env.cfg.Duration.Std(),
		Pacing:      env.cfg.Pacing.Std(),
		Credentials: env.cfg.Credentials(),
	}, load.WithLogger(env.logger))

	if err := runner.Run(cmd.Context()); err != nil {
		return err
	}
	return env.printer.LoadReport(load.Aggregate(samples))
}
