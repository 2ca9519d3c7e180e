// Package pipeline coordinates the elimination stages: a concurrent
// per-stage runner and an orchestrator that feeds survivors from one
// stage into the next and produces the final ranking.
package pipeline

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// FallbackPolicy decides what a checker failure means for the
// submission under evaluation.
type FallbackPolicy int

const (
	// FailStage treats a checker failure as an elimination.
	FailStage FallbackPolicy = iota
	// AssumePass keeps the submission alive with an assumed score
	// when the tooling, not the submission, failed.
	AssumePass
)

// AssumedScore is recorded when a stage is assumed passed.
const AssumedScore = 75.0

// Runner evaluates one stage across submissions with a bounded worker
// pool.
type Runner struct {
	workers int
	log     *logger.Logger
}

// NewRunner creates a Runner with the given concurrency.
func NewRunner(workers int, log *logger.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{workers: workers, log: log}
}

// RunStage checks every submission concurrently and returns results
// ordered by submission ID. A checker error applies the stage's
// fallback policy to that submission instead of aborting the run;
// only context cancellation stops the stage.
func (r *Runner) RunStage(ctx context.Context, checker contracts.StageChecker, subs []contracts.Submission, fallback FallbackPolicy) ([]*contracts.StageResult, error) {
	var (
		mu      sync.Mutex
		results []*contracts.StageResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := checker.Check(ctx, sub)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				result = r.fallbackResult(checker.Name(), sub, fallback, err)
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].SubmissionID < results[j].SubmissionID
	})
	return results, nil
}

func (r *Runner) fallbackResult(stage string, sub contracts.Submission, fallback FallbackPolicy, cause error) *contracts.StageResult {
	r.log.WithError(cause).WithFields(map[string]interface{}{
		"stage":      stage,
		"submission": sub.ID,
		"assumed":    fallback == AssumePass,
	}).Warn("checker failed, applying fallback")

	if fallback == AssumePass {
		result := contracts.NewStageResult(sub, stage, true, AssumedScore, nil)
		result.Skipped = true
		return result
	}

	issue := contracts.Issue{
		Severity:       contracts.SeverityCritical,
		Category:       "Evaluation Error",
		Description:    "Stage evaluation failed: " + cause.Error(),
		Recommendation: "Inspect the submission manually",
	}
	return contracts.NewStageResult(sub, stage, false, 0, []contracts.Issue{issue})
}
