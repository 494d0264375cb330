package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "riskctl",
	Short: "Finrisk - financial risk scoring and alerting",
	Long: `Finrisk Unified CLI

Credit scoring, probability of default, credit limits and risk alerts
for corporate counterparties.

Usage:
  go run ./cmd/riskctl [command]

Examples:
  go run ./cmd/riskctl api
  go run ./cmd/riskctl migrate up
  go run ./cmd/riskctl scheduler start
  go run ./cmd/riskctl recalc --all
  go run ./cmd/riskctl score --sector İnşaat --revenue 5e6 --assets 4e6 --liabilities 3e6
  go run ./cmd/riskctl test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
