package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/booker/internal/load"
	"github.com/wesleyorama2/booker/internal/metrics"
	"github.com/wesleyorama2/booker/internal/swarm"
)

func newSwarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swarm",
		Short: "Simulate users picking weighted tasks with think time",
		Long: `Spawn --users simulated users. Each authenticates once, then repeatedly
picks a task by weight (ping 1, auth 2, create_get_delete 3) and waits a
random think time between tasks, until --duration has elapsed.

  booker swarm --users 50 --spawn-rate 5 --duration 2m --weights ping=1,create_get_delete=4`,
		Args: cobra.NoArgs,
		RunE: runSwarm,
	}
	cmd.Flags().IntP("users", "u", 0, "Simulated users (env USERS, default 5)")
	cmd.Flags().StringP("duration", "d", "", "Run duration, e.g. 2m or 120 (env DURATION, default 15s)")
	cmd.Flags().Float64("spawn-rate", 0, "Users started per second (0 starts all at once)")
	cmd.Flags().Duration("wait-min", 0, "Minimum think time (default 500ms)")
	cmd.Flags().Duration("wait-max", 0, "Maximum think time (default 2s)")
	cmd.Flags().StringToInt("weights", nil, "Task weights, e.g. ping=1,auth=2,create_get_delete=3")
	addMetricsFlag(cmd)
	return cmd
}

func runSwarm(cmd *cobra.Command, args []string) error {
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

	s, err := swarm.New(env.client, samples, metrics.NewEngine(), swarm.Config{
		Users:       env.cfg.Users,
		Duration:    env.cfg.Duration.Std(),
		WaitMin:     env.cfg.Swarm.WaitMin.Std(),
		WaitMax:     env.cfg.Swarm.WaitMax.Std(),
		SpawnRate:   env.cfg.Swarm.SpawnRate,
		Weights:     env.cfg.Swarm.Weights,
		Credentials: env.cfg.Credentials(),
	}, swarm.WithLogger(env.logger))
	if err != nil {
		return err
	}

	if err := s.Run(cmd.Context()); err != nil {
		return err
	}
	return env.printer.SwarmReport(s.Report())
}
