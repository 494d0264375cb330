package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/finrisk/internal/api"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- serves the company, analysis, alert and dashboard endpoints
- streams new alerts on /ws/alerts
- optionally runs the background scheduler in-process

Endpoints:
  GET  /health                          - Health check
  GET  /api/companies                   - Company list
  POST /api/companies/{id}/recalculate  - Rescore a company
  GET  /api/alerts                      - Alert list
  GET  /api/dashboard/stats             - Dashboard aggregate
  GET  /ws/alerts                       - Realtime alert feed

Example:
  go run ./cmd/riskctl api
  go run ./cmd/riskctl api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "run the scheduler in-process when SCHEDULER_ENABLED")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Finrisk API Server ===")

	rt, err := newStack()
	if err != nil {
		return err
	}
	defer rt.close()

	// Override port if flag is set
	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	if withScheduler && rt.cfg.Scheduler.Enabled {
		sched, err := rt.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(rt.cfg, rt.log, rt.app.Router())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	rt.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a listen failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	rt.log.Info("Shutting down server...")

	// Websocket clients are hijacked and not tracked by Shutdown
	rt.app.Hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	rt.log.Info("Server stopped")
	return nil
}
