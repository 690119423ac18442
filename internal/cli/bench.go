package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/booker/internal/bench"
)

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Time individual API calls over fixed rounds",
		Long: `Run the micro-benchmarks: ping x10, auth x5, list bookings x5 and
create-get-delete x3. Reports min, median, mean, max and stddev per case.`,
		Args: cobra.NoArgs,
		RunE: runBench,
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	suite := bench.NewSuite(env.client, env.cfg.Credentials(), env.logger)
	results := suite.Run(cmd.Context(), bench.DefaultCases())
	if err := env.printer.Bench(results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d benchmarks had failed rounds", failed, len(results))
	}
	return nil
}
