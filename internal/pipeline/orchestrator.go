package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/report"
	"github.com/msolomos/contest-arbiter/internal/scoring"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// ErrHalted is returned when the operator declines to continue at an
// interactive checkpoint.
var ErrHalted = errors.New("evaluation halted by operator")

// StageSpec binds a checker to its fallback policy and the score
// recorded when the operator skips the stage.
type StageSpec struct {
	Checker   contracts.StageChecker
	Fallback  FallbackPolicy
	SkipScore float64
}

// Summary is the outcome of a full pipeline run.
type Summary struct {
	Records      []*contracts.FinalRecord
	StageResults map[string][]*contracts.StageResult
	Survivors    int
}

// Orchestrator runs the elimination stages in order, feeding each
// stage only the survivors of the previous one, and produces the
// final weighted ranking over every submission that entered.
type Orchestrator struct {
	runner *Runner
	stages []StageSpec
	writer *report.Writer
	log    *logger.Logger

	interactive bool
	in          io.Reader
	out         io.Writer
	now         func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(runner *Runner, stages []StageSpec, writer *report.Writer, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		runner: runner,
		stages: stages,
		writer: writer,
		log:    log,
		now:    time.Now,
	}
}

// SetInteractive enables the per-stage confirmation prompt on in/out.
func (o *Orchestrator) SetInteractive(in io.Reader, out io.Writer) {
	o.interactive = true
	o.in = in
	o.out = out
}

type decision int

const (
	decisionRun decision = iota
	decisionSkip
	decisionHalt
)

// Run executes every stage and writes all report files. Submissions
// eliminated mid-pipeline stay in the final ranking with their failed
// stage on record.
func (o *Orchestrator) Run(ctx context.Context, subs []contracts.Submission) (*Summary, error) {
	if len(subs) == 0 {
		return nil, errors.New("no submissions to evaluate")
	}

	survivors := contracts.NewSurvivorSet(subs)
	outcomes := make(map[string]map[string]contracts.StageOutcome, len(subs))
	for _, sub := range subs {
		outcomes[sub.ID] = make(map[string]contracts.StageOutcome, len(o.stages))
	}
	stageResults := make(map[string][]*contracts.StageResult, len(o.stages))

	reader := bufio.NewReader(o.in)

	for _, spec := range o.stages {
		stage := spec.Checker.Name()
		if survivors.Len() == 0 {
			o.log.WithField("stage", stage).Warn("no survivors remain, stage skipped")
			break
		}

		switch o.decide(reader, stage) {
		case decisionHalt:
			return nil, ErrHalted
		case decisionSkip:
			results := o.skipResults(stage, survivors.Submissions(), spec.SkipScore)
			if err := o.recordStage(stage, results, outcomes, stageResults); err != nil {
				return nil, err
			}
			continue
		}

		o.log.WithFields(map[string]interface{}{
			"stage":      stage,
			"candidates": survivors.Len(),
		}).Info("stage started")

		results, err := o.runner.RunStage(ctx, spec.Checker, survivors.Submissions(), spec.Fallback)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", stage, err)
		}
		if err := o.recordStage(stage, results, outcomes, stageResults); err != nil {
			return nil, err
		}
		survivors.ApplyStage(results)

		o.log.WithFields(map[string]interface{}{
			"stage":     stage,
			"survivors": survivors.Len(),
		}).Info("stage completed")
	}

	records := o.finalize(subs, outcomes)
	if err := o.writer.WriteFinal(records); err != nil {
		return nil, err
	}

	return &Summary{
		Records:      records,
		StageResults: stageResults,
		Survivors:    survivors.Len(),
	}, nil
}

func (o *Orchestrator) decide(reader *bufio.Reader, stage string) decision {
	if !o.interactive {
		return decisionRun
	}
	fmt.Fprintf(o.out, "Proceed with %s? [y/N/s]: ", report.StageTitle(stage))
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return decisionHalt
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return decisionRun
	case "s", "skip":
		return decisionSkip
	default:
		return decisionHalt
	}
}

func (o *Orchestrator) skipResults(stage string, subs []contracts.Submission, score float64) []*contracts.StageResult {
	results := make([]*contracts.StageResult, 0, len(subs))
	for _, sub := range subs {
		result := contracts.NewStageResult(sub, stage, true, score, nil)
		result.Skipped = true
		results = append(results, result)
	}
	o.log.WithFields(map[string]interface{}{
		"stage": stage,
		"score": score,
	}).Warn("stage skipped by operator")
	return results
}

func (o *Orchestrator) recordStage(stage string, results []*contracts.StageResult, outcomes map[string]map[string]contracts.StageOutcome, stageResults map[string][]*contracts.StageResult) error {
	stageResults[stage] = results
	for _, r := range results {
		outcomes[r.SubmissionID][stage] = contracts.StageOutcome{Passed: r.Passed, Score: r.Score}
	}
	return o.writer.WriteStage(stage, results)
}

// finalize blends stage scores into the overall ranking. Stages a
// submission never reached score zero, and the submission cannot
// attain PASS status.
func (o *Orchestrator) finalize(subs []contracts.Submission, outcomes map[string]map[string]contracts.StageOutcome) []*contracts.FinalRecord {
	records := make([]*contracts.FinalRecord, 0, len(subs))

	for _, sub := range subs {
		stages := outcomes[sub.ID]

		scores := make(map[string]float64, len(stages))
		status := contracts.StatusPass
		var issues []string
		for _, stage := range contracts.StageNames() {
			outcome, evaluated := stages[stage]
			if !evaluated {
				status = contracts.StatusFail
				issues = append(issues, fmt.Sprintf("%s: Not Evaluated", report.StageTitle(stage)))
				continue
			}
			scores[stage] = outcome.Score
			if !outcome.Passed {
				status = contracts.StatusFail
				issues = append(issues, fmt.Sprintf("%s: Failed (%.1f/100)", report.StageTitle(stage), outcome.Score))
			}
		}

		records = append(records, &contracts.FinalRecord{
			SubmissionID: sub.ID,
			Participant:  sub.Participant,
			Stages:       stages,
			OverallScore: scoring.Overall(scores),
			Status:       status,
			Issues:       issues,
			Timestamp:    o.now(),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].OverallScore != records[j].OverallScore {
			return records[i].OverallScore > records[j].OverallScore
		}
		return records[i].SubmissionID < records[j].SubmissionID
	})
	for i, r := range records {
		r.Rank = i + 1
	}
	return records
}
