package contracts

import "time"

// Stage names, in pipeline order.
const (
	StageSecurity   = "security_audit"
	StageCompliance = "strict_compliance"
	StageIntegrity  = "data_integrity"
	StageRules      = "contest_rules"
)

// StageNames returns the pipeline stages in execution order.
func StageNames() []string {
	return []string{StageSecurity, StageCompliance, StageIntegrity, StageRules}
}

// StageResult is the verdict of one stage for one submission. It is
// built once by a checker and never mutated afterwards.
type StageResult struct {
	SubmissionID   string             `json:"submission_id"`
	Participant    string             `json:"participant"`
	Stage          string             `json:"stage"`
	Passed         bool               `json:"passed"`
	Score          float64            `json:"score"`
	Issues         []Issue            `json:"issues"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	SeverityCounts map[Severity]int   `json:"severity_counts"`
	FilesScanned   int                `json:"files_scanned"`
	Skipped        bool               `json:"skipped,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

// NewStageResult assembles a result, deriving the severity tally from
// the issue list so the two can never disagree.
func NewStageResult(sub Submission, stage string, passed bool, score float64, issues []Issue) *StageResult {
	return &StageResult{
		SubmissionID:   sub.ID,
		Participant:    sub.Participant,
		Stage:          stage,
		Passed:         passed,
		Score:          score,
		Issues:         issues,
		SeverityCounts: CountBySeverity(issues),
		Timestamp:      time.Now(),
	}
}

// CriticalCount returns the number of CRITICAL issues.
func (r *StageResult) CriticalCount() int {
	return r.SeverityCounts[SeverityCritical]
}

// HighCount returns the number of HIGH issues.
func (r *StageResult) HighCount() int {
	return r.SeverityCounts[SeverityHigh]
}
