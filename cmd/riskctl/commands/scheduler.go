package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Background job scheduler",
	Long: `Starts the scheduler or runs its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs and schedules
  run     - run one job now and print its result

Registered jobs:
- alert_sweep: re-evaluates alert rules for active and monitored companies (ALERT_SWEEP_SCHEDULE)
- stats_refresh: recomputes the cached dashboard aggregate (STATS_REFRESH_SCHEDULE)

Example:
  go run ./cmd/riskctl scheduler start
  go run ./cmd/riskctl scheduler list
  go run ./cmd/riskctl scheduler run alert_sweep`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Finrisk Scheduler ===")

	return withStack(func(_ context.Context, rt *stack) error {
		if !rt.cfg.Scheduler.Enabled {
			return fmt.Errorf("scheduler is disabled (SCHEDULER_ENABLED=false)")
		}

		sched, err := rt.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()

		fmt.Println("\n✅ Scheduler started successfully")
		fmt.Println("\nRegistered jobs:")
		for _, jobName := range sched.GetAllJobs() {
			fmt.Printf("  - %s\n", jobName)
		}
		fmt.Println("\nPress Ctrl+C to stop")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		fmt.Println("\nShutting down scheduler...")
		sched.Stop()
		return nil
	})
}

func listJobs(cmd *cobra.Command, args []string) error {
	return withStack(func(_ context.Context, rt *stack) error {
		sched, err := rt.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}

		stats := sched.GetJobStats()
		fmt.Println("Registered jobs:")
		for _, jobName := range sched.GetAllJobs() {
			fmt.Printf("  - %-14s %s\n", jobName, stats[jobName].Schedule)
		}
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	fmt.Printf("Running job: %s\n", jobName)

	return withStack(func(ctx context.Context, rt *stack) error {
		sched, err := rt.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}

		res, err := sched.RunNow(ctx, jobName)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("❌ job %s failed after %d attempts: %s", jobName, res.Attempts, res.Error)
		}

		fmt.Printf("✅ Job %s completed in %v\n", jobName, res.Duration)
		return nil
	})
}
