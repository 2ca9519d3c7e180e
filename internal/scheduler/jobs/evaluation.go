package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/evalconfig"
	"github.com/msolomos/contest-arbiter/internal/pipeline"
	"github.com/msolomos/contest-arbiter/internal/report"
	"github.com/msolomos/contest-arbiter/internal/results"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// EvaluationJob re-runs the full evaluation pipeline over the
// submissions directory, so reports stay current as entries change.
type EvaluationJob struct {
	submissionsDir string
	outputDir      string
	cfg            *evalconfig.Config
	repo           *results.Repository // nil when no database is configured
	logger         *logger.Logger
	schedule       string
}

// NewEvaluationJob creates a new evaluation job. repo may be nil.
func NewEvaluationJob(submissionsDir, outputDir string, cfg *evalconfig.Config, repo *results.Repository, log *logger.Logger, schedule string) *EvaluationJob {
	if schedule == "" {
		schedule = "0 0 2 * * *" // Every day at 2 AM
	}
	return &EvaluationJob{
		submissionsDir: submissionsDir,
		outputDir:      outputDir,
		cfg:            cfg,
		repo:           repo,
		logger:         log,
		schedule:       schedule,
	}
}

// Name returns the job name
func (j *EvaluationJob) Name() string {
	return "evaluation"
}

// Schedule returns the cron schedule
func (j *EvaluationJob) Schedule() string {
	return j.schedule
}

// Run executes a full evaluation pass.
func (j *EvaluationJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	subs, err := contracts.DiscoverSubmissions(j.submissionsDir)
	if err != nil {
		return fmt.Errorf("discover submissions: %w", err)
	}
	if len(subs) == 0 {
		j.logger.WithField("dir", j.submissionsDir).Warn("No submissions found, skipping evaluation")
		return nil
	}

	runner := pipeline.NewRunner(j.cfg.Workers, j.logger)
	writer := report.NewWriter(j.outputDir, j.logger)
	orch := pipeline.NewOrchestrator(runner, j.cfg.BuildStages(j.logger), writer, j.logger)

	summary, err := orch.Run(ctx, subs)
	if err != nil {
		return fmt.Errorf("run evaluation: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"submissions": len(subs),
		"survivors":   summary.Survivors,
	}).Info("Scheduled evaluation completed")

	if j.repo != nil {
		runID, err := j.repo.SaveRun(ctx, startedAt, j.cfg.Hash, summary.StageResults, summary.Records)
		if err != nil {
			return fmt.Errorf("archive evaluation run: %w", err)
		}
		j.logger.WithField("run_id", runID).Info("Evaluation run archived")
	}

	return nil
}
