package main

import (
	"os"

	"github.com/wonny/finrisk/cmd/riskctl/commands"
)

// main is the entry point for the riskctl CLI
// ⭐ single CLI entry point: go run ./cmd/riskctl [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
