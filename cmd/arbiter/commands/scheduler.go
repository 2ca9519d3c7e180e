package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msolomos/contest-arbiter/internal/results"
	"github.com/msolomos/contest-arbiter/internal/scheduler"
	"github.com/msolomos/contest-arbiter/internal/scheduler/jobs"
	"github.com/msolomos/contest-arbiter/pkg/database"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the evaluation scheduler",
	Long: `Starts the scheduler daemon or manages its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a job immediately
  status  - show job execution statistics

Example:
  go run ./cmd/arbiter scheduler start
  go run ./cmd/arbiter scheduler start --schedule "0 0 */6 * * *"
  go run ./cmd/arbiter scheduler run evaluation`,
}

var (
	evalSchedule string

	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long: `Starts the scheduler and schedules the registered jobs.

Registered jobs:
- evaluation: full pipeline run over the submissions directory
  (daily at 2 AM unless --schedule overrides it)

A run that is still in progress when the next trigger fires is
skipped, never doubled. Stop with Ctrl+C.`,
		RunE: runSchedulerDaemon,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listSchedulerJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution statistics",
		RunE:  showSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerCmd.PersistentFlags().StringVar(&evalSchedule, "schedule", "", `evaluation cron schedule (default "0 0 2 * * *")`)
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Contest Arbiter Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listSchedulerJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	history, err := sched.RunJobAndWait(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if len(history.Results) > 0 && !history.Results[len(history.Results)-1].Success {
		return fmt.Errorf("job %s failed: %s", jobName, history.Results[len(history.Results)-1].Error)
	}

	fmt.Println("Job completed")
	return nil
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, eval, log, err := loadEnvironment()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}

	var repo *results.Repository
	if cfg.HasDatabase() {
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		cleanup = db.Close
		repo = results.NewRepository(db.Pool)
	}

	sched := scheduler.New(log)

	evalJob := jobs.NewEvaluationJob(
		cfg.Evaluation.BasePath,
		cfg.Evaluation.OutputDir,
		eval,
		repo,
		log,
		evalSchedule,
	)
	if err := sched.AddJob(evalJob); err != nil {
		cleanup()
		return nil, nil, err
	}

	return sched, cleanup, nil
}
