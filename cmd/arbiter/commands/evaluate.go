package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/pipeline"
	"github.com/msolomos/contest-arbiter/internal/report"
	"github.com/msolomos/contest-arbiter/internal/results"
	"github.com/msolomos/contest-arbiter/pkg/config"
	"github.com/msolomos/contest-arbiter/pkg/database"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the full elimination pipeline",
	Long: `Runs all four stages in order, feeding each stage only the
survivors of the previous one, then writes the final ranking.

By default every submission directory under the base path is
evaluated. --submissions restricts the run to an explicit ID list.

Example:
  go run ./cmd/arbiter evaluate
  go run ./cmd/arbiter evaluate --submissions "#01 (Alice),#02 (Bob)"
  go run ./cmd/arbiter evaluate --interactive
  go run ./cmd/arbiter evaluate --config arbiter.yaml --archive`,
	RunE: runEvaluate,
}

var (
	interactive bool
	archive     bool
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "confirm each stage before it runs (y/N/s)")
	evaluateCmd.Flags().BoolVar(&archive, "archive", false, "archive the run to the database")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Contest Arbiter ===")

	cfg, eval, log, err := loadEnvironment()
	if err != nil {
		return err
	}

	subs, err := selectSubmissions(cfg.Evaluation.BasePath)
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"submissions": len(subs),
		"base_path":   cfg.Evaluation.BasePath,
		"workers":     eval.Workers,
	}).Info("Starting evaluation")

	startTime := time.Now()

	runner := pipeline.NewRunner(eval.Workers, log)
	writer := report.NewWriter(cfg.Evaluation.OutputDir, log)
	orch := pipeline.NewOrchestrator(runner, eval.BuildStages(log), writer, log)

	if interactive {
		orch.SetInteractive(os.Stdin, os.Stdout)
	}

	summary, err := orch.Run(cmd.Context(), subs)
	if errors.Is(err, pipeline.ErrHalted) {
		fmt.Println("\nEvaluation halted by operator")
		return nil
	}
	if err != nil {
		return fmt.Errorf("run evaluation: %w", err)
	}

	PrintRanking(summary.Records)
	PrintCompletion(writer.OutputDir(), time.Since(startTime).Seconds())

	if archive {
		if err := archiveRun(cmd.Context(), cfg, startTime, eval.Hash, summary); err != nil {
			return err
		}
	}

	return nil
}

// selectSubmissions resolves the --submissions ID list, or discovers
// all submissions under the base path when no list is given.
func selectSubmissions(basePath string) ([]contracts.Submission, error) {
	if submissions != "" {
		return contracts.ResolveSubmissions(basePath, strings.Split(submissions, ","))
	}

	subs, err := contracts.DiscoverSubmissions(basePath)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("no submissions found under %s", basePath)
	}
	return subs, nil
}

func archiveRun(ctx context.Context, cfg *config.Config, startedAt time.Time, configHash string, summary *pipeline.Summary) error {
	if !cfg.HasDatabase() {
		return fmt.Errorf("cannot archive: DATABASE_URL is not set")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := results.NewRepository(db.Pool)
	runID, err := repo.SaveRun(ctx, startedAt, configHash, summary.StageResults, summary.Records)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}

	fmt.Printf("   Archived as run #%d\n", runID)
	return nil
}
