// Package results archives evaluation runs in PostgreSQL so past
// contests remain queryable after the output directory is gone. The
// archive is optional; the pipeline runs fully without a database.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// Repository handles persistence of evaluation runs.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Run is an archived evaluation run.
type Run struct {
	ID          int64     `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Submissions int       `json:"submissions"`
	Passed      int       `json:"passed"`
	ConfigHash  string    `json:"config_hash,omitempty"`
}

// SaveRun archives a completed evaluation: the run header, every
// stage result and the final ranking, in one transaction.
func (r *Repository) SaveRun(ctx context.Context, startedAt time.Time, configHash string, stageResults map[string][]*contracts.StageResult, records []*contracts.FinalRecord) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	passed := 0
	for _, record := range records {
		if record.Status == contracts.StatusPass {
			passed++
		}
	}

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO arbiter.evaluation_runs (
			started_at,
			submissions,
			passed,
			config_hash,
			created_at
		) VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`, startedAt, len(records), passed, configHash).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	for stage, results := range stageResults {
		for _, result := range results {
			issuesJSON, err := json.Marshal(result.Issues)
			if err != nil {
				return 0, fmt.Errorf("marshal issues: %w", err)
			}
			metricsJSON, err := json.Marshal(result.Metrics)
			if err != nil {
				return 0, fmt.Errorf("marshal metrics: %w", err)
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO arbiter.stage_results (
					run_id,
					stage,
					submission_id,
					participant,
					passed,
					skipped,
					score,
					issues,
					metrics,
					created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			`, runID, stage, result.SubmissionID, result.Participant,
				result.Passed, result.Skipped, result.Score, issuesJSON, metricsJSON)
			if err != nil {
				return 0, fmt.Errorf("insert stage result: %w", err)
			}
		}
	}

	for _, record := range records {
		issuesJSON, err := json.Marshal(record.Issues)
		if err != nil {
			return 0, fmt.Errorf("marshal ranking issues: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO arbiter.final_rankings (
				run_id,
				rank,
				submission_id,
				participant,
				overall_score,
				status,
				issues,
				created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		`, runID, record.Rank, record.SubmissionID, record.Participant,
			record.OverallScore, record.Status, issuesJSON)
		if err != nil {
			return 0, fmt.Errorf("insert ranking: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// GetLatestRun retrieves the most recent archived run header.
func (r *Repository) GetLatestRun(ctx context.Context) (*Run, error) {
	run := &Run{}
	err := r.db.QueryRow(ctx, `
		SELECT id, started_at, submissions, passed, COALESCE(config_hash, '')
		FROM arbiter.evaluation_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.Submissions, &run.Passed, &run.ConfigHash)
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return run, nil
}

// GetRanking retrieves the final ranking of one archived run.
func (r *Repository) GetRanking(ctx context.Context, runID int64) ([]*contracts.FinalRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT rank, submission_id, participant, overall_score, status, issues, created_at
		FROM arbiter.final_rankings
		WHERE run_id = $1
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ranking: %w", err)
	}
	defer rows.Close()

	var records []*contracts.FinalRecord
	for rows.Next() {
		record := &contracts.FinalRecord{}
		var issuesJSON []byte
		if err := rows.Scan(&record.Rank, &record.SubmissionID, &record.Participant,
			&record.OverallScore, &record.Status, &issuesJSON, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		if len(issuesJSON) > 0 {
			if err := json.Unmarshal(issuesJSON, &record.Issues); err != nil {
				return nil, fmt.Errorf("unmarshal ranking issues: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking rows: %w", err)
	}
	return records, nil
}

// GetStageResults retrieves the stage results of one archived run.
func (r *Repository) GetStageResults(ctx context.Context, runID int64, stage string) ([]*contracts.StageResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT stage, submission_id, participant, passed, skipped, score, issues, metrics, created_at
		FROM arbiter.stage_results
		WHERE run_id = $1 AND ($2 = '' OR stage = $2)
		ORDER BY stage, submission_id
	`, runID, stage)
	if err != nil {
		return nil, fmt.Errorf("query stage results: %w", err)
	}
	defer rows.Close()

	var results []*contracts.StageResult
	for rows.Next() {
		result := &contracts.StageResult{}
		var issuesJSON, metricsJSON []byte
		if err := rows.Scan(&result.Stage, &result.SubmissionID, &result.Participant,
			&result.Passed, &result.Skipped, &result.Score, &issuesJSON, &metricsJSON,
			&result.Timestamp); err != nil {
			return nil, fmt.Errorf("scan stage result row: %w", err)
		}
		if len(issuesJSON) > 0 {
			if err := json.Unmarshal(issuesJSON, &result.Issues); err != nil {
				return nil, fmt.Errorf("unmarshal issues: %w", err)
			}
		}
		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &result.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics: %w", err)
			}
		}
		result.SeverityCounts = contracts.CountBySeverity(result.Issues)
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage result rows: %w", err)
	}
	return results, nil
}
