package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/scoring"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a company offline",
	Long: `Scores a company from flags without touching the database.

Metric flags (--current-ratio, --debt-to-equity, --roa, --net-income) attach a
financial statement snapshot; without them the balance sheet fields are used.

Example:
  go run ./cmd/riskctl score --sector Teknoloji --revenue 10e6 --assets 8e6 --liabilities 3e6
  go run ./cmd/riskctl score --sector İnşaat --revenue 2e6 --assets 3e6 --liabilities 2.5e6 --current-ratio 0.9 --stress
  go run ./cmd/riskctl score --sector-table sectors.yaml --sector Tarım --revenue 1e6 --json`,
	RunE: runScore,
}

var (
	scoreCompany     contracts.Company
	scoreMetric      contracts.FinancialMetric
	scoreSectorTable string
	scoreStress      bool
	scoreJSON        bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	f := scoreCmd.Flags()
	f.StringVar(&scoreCompany.Name, "name", "", "company name")
	f.StringVar(&scoreCompany.Sector, "sector", "", "sector (see the sector table)")
	f.Float64Var(&scoreCompany.Revenue, "revenue", 0, "annual revenue (TL)")
	f.Float64Var(&scoreCompany.Assets, "assets", 0, "total assets (TL)")
	f.Float64Var(&scoreCompany.Liabilities, "liabilities", 0, "total liabilities (TL)")
	f.StringVar((*string)(&scoreCompany.Status), "status", string(contracts.StatusActive), "company status")

	f.Float64Var(&scoreMetric.CurrentRatio, "current-ratio", 0, "current ratio")
	f.Float64Var(&scoreMetric.DebtToEquity, "debt-to-equity", 0, "debt to equity ratio")
	f.Float64Var(&scoreMetric.ROA, "roa", 0, "return on assets (ratio, e.g. 0.05)")
	f.Float64Var(&scoreMetric.NetIncome, "net-income", 0, "net income (TL)")

	f.StringVar(&scoreSectorTable, "sector-table", "", "YAML sector table (default: built-in)")
	f.BoolVar(&scoreStress, "stress", false, "include stress scenarios")
	f.BoolVar(&scoreJSON, "json", false, "print JSON")

	scoreCmd.MarkFlagRequired("sector")
}

// scoreOutput is the printed result of the score command
type scoreOutput struct {
	Company       string                    `json:"company,omitempty"`
	Sector        string                    `json:"sector"`
	ModelVersion  string                    `json:"model_version"`
	Assessment    scoring.Assessment        `json:"assessment"`
	Breakdown     scoring.Breakdown         `json:"breakdown"`
	RiskFactors   contracts.RiskFactors     `json:"risk_factors"`
	Scenarios     contracts.StressScenarios `json:"scenarios,omitempty"`
	HasStatements bool                      `json:"has_statements"`
}

func runScore(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(scoreSectorTable)
	if err != nil {
		return fmt.Errorf("load sector table: %w", err)
	}

	c := &scoreCompany
	if !c.Status.Valid() {
		return fmt.Errorf("invalid status %q", c.Status)
	}

	var m *contracts.FinancialMetric
	for _, name := range []string{"current-ratio", "debt-to-equity", "roa", "net-income"} {
		if cmd.Flags().Changed(name) {
			scoreMetric.Revenue = c.Revenue
			m = &scoreMetric
			break
		}
	}

	out := scoreOutput{
		Company:       c.Name,
		Sector:        c.Sector,
		ModelVersion:  engine.ModelVersion(),
		Assessment:    engine.Assess(c, m),
		Breakdown:     engine.Breakdown(c, m),
		RiskFactors:   engine.RiskFactors(c, m),
		HasStatements: m != nil,
	}
	if scoreStress {
		out.Scenarios = engine.StressTest(c, m)
	}

	if scoreJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printScore(out)
	return nil
}

func printScore(out scoreOutput) {
	a := out.Assessment

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	if out.Company != "" {
		fmt.Printf("  %s (%s)\n", out.Company, out.Sector)
	} else {
		fmt.Printf("  Sector: %s\n", out.Sector)
	}
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Credit score : %d (%s)\n", a.CreditScore, a.RiskLevel)
	fmt.Printf("  PD           : %.2f%% (%s)\n", a.PDScore, a.FinancialHealth)
	fmt.Printf("  Credit limit : %s TL\n", humanize.Comma(int64(a.RecommendedCreditLimit)))
	fmt.Printf("  Model        : %s\n", out.ModelVersion)
	fmt.Println("───────────────────────────────────────────────────────────")

	b := out.Breakdown
	fmt.Printf("  financial=%.0f payment=%.0f sector=%.0f macro=%.0f liquidity=%.0f\n",
		b.FinancialHealth, b.PaymentHistory, b.Sector, b.Macro, b.Liquidity)

	fmt.Println("\n  Risk factors:")
	for _, name := range sortedKeys(out.RiskFactors) {
		f := out.RiskFactors[name]
		fmt.Printf("    %-16s score=%8.2f weight=%.2f %s\n", name, f.Score, f.Weight, f.Status)
	}

	if len(out.Scenarios) > 0 {
		fmt.Println("\n  Stress scenarios (PD %):")
		for _, name := range sortedKeys(out.Scenarios) {
			fmt.Printf("    %-16s %.2f\n", name, out.Scenarios[name])
		}
	}

	if !out.HasStatements {
		fmt.Println("\n  (no statement metrics given; balance sheet fields used)")
	}
	fmt.Println()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
