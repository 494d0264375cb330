package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/finrisk/internal/contracts"
)

// recalcCmd represents the recalc command
var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Rescore companies from their latest metrics",
	Long: `Recomputes credit score, PD and bands from each company's latest
financial statement snapshot, then evaluates the alert rules.

Example:
  go run ./cmd/riskctl recalc --id 42
  go run ./cmd/riskctl recalc --all`,
	RunE: runRecalc,
}

var (
	recalcAll bool
	recalcID  int64
)

func init() {
	rootCmd.AddCommand(recalcCmd)

	recalcCmd.Flags().BoolVar(&recalcAll, "all", false, "rescore every active and monitored company")
	recalcCmd.Flags().Int64Var(&recalcID, "id", 0, "rescore a single company")
	recalcCmd.MarkFlagsMutuallyExclusive("all", "id")
	recalcCmd.MarkFlagsOneRequired("all", "id")
}

func runRecalc(cmd *cobra.Command, args []string) error {
	return withStack(func(ctx context.Context, rt *stack) error {
		ids := []int64{recalcID}
		if recalcAll {
			var err error
			ids, err = rt.app.Repos.Companies.ListIDsByStatus(ctx, contracts.StatusActive, contracts.StatusMonitoring)
			if err != nil {
				return fmt.Errorf("list companies: %w", err)
			}
		}

		var failed int
		for _, id := range ids {
			res, err := rt.app.Companies.Recalculate(ctx, id)
			if errors.Is(err, contracts.ErrNotFound) {
				return fmt.Errorf("❌ company %d not found", id)
			}
			if err != nil {
				failed++
				rt.log.WithError(err).WithField("company_id", id).Error("Recalculation failed")
				continue
			}
			fmt.Printf("  #%-6d score=%-4d pd=%5.2f%% level=%-8s health=%-9s alerts=%d\n",
				id, res.RiskScore, res.PDScore, res.RiskLevel, res.FinancialHealth, res.AlertsGenerated)
		}

		rt.app.Dashboard.Invalidate(ctx)

		if failed > 0 {
			return fmt.Errorf("❌ %d of %d recalculations failed", failed, len(ids))
		}
		fmt.Printf("\n✅ Recalculated %d companies\n", len(ids))
		return nil
	})
}
