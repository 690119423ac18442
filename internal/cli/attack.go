package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/booker/internal/attack"
)

func newAttackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attack",
		Short: "Hit GET /ping and GET /booking at a constant rate",
		Long: `Attack each read endpoint in turn at --rate requests per second for
--duration and report success ratio, latency percentiles and status codes.

  booker attack --rate 50 --duration 30s`,
		Args: cobra.NoArgs,
		RunE: runAttack,
	}
	cmd.Flags().IntP("rate", "r", 0, "Requests per second per target (default 10)")
	cmd.Flags().StringP("duration", "d", "", "Attack duration per target (default 10s)")
	addMetricsFlag(cmd)
	return cmd
}

func runAttack(cmd *cobra.Command, args []string) error {
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

	opts := []attack.Option{attack.WithLogger(env.logger)}
	if exporter != nil {
		opts = append(opts, attack.WithObserver(exporter))
	}
	a, err := attack.New(attack.Config{
		BaseURL:  env.cfg.BaseURL,
		Rate:     env.cfg.Attack.Rate,
		Duration: env.cfg.Attack.Duration.Std(),
		Timeout:  env.cfg.Timeout.Std(),
	}, opts...)
	if err != nil {
		return err
	}

	results, err := a.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return env.printer.Attack(results)
}
