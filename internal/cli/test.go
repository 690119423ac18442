package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/booker/internal/contract"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the API contract tests",
		Long: `Run contract cases against the API: status codes, response schemas,
booking round-trips and token requirements. Bookings created by a case are
deleted afterwards. Exits non-zero when any case fails.`,
		Args: cobra.NoArgs,
		RunE: runContract,
	}
	cmd.Flags().StringSlice("case", nil, "Run only these cases (repeatable)")
	cmd.Flags().Bool("list", false, "List case names and exit")
	return cmd
}

func runContract(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, c := range contract.DefaultCases() {
			fmt.Fprintln(cmd.OutOrStdout(), c.Name)
		}
		return nil
	}

	names, _ := cmd.Flags().GetStringSlice("case")
	cases, err := contract.Select(contract.DefaultCases(), names...)
	if err != nil {
		return err
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	results := contract.NewSuite(env.client, env.cfg.Credentials(), env.logger).Run(cmd.Context(), cases)
	if err := env.printer.Contract(results); err != nil {
		return err
	}
	if failed := results.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d contract cases failed", failed, len(results))
	}
	return nil
}
