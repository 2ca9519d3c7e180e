package contracts

import "time"

// Final verdict status values.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// StageOutcome is one stage's contribution to a final record.
type StageOutcome struct {
	Passed bool    `json:"passed"`
	Score  float64 `json:"score"`
}

// FinalRecord is one submission's row in the final ranking.
type FinalRecord struct {
	Rank         int                     `json:"rank"`
	SubmissionID string                  `json:"submission_id"`
	Participant  string                  `json:"participant"`
	Stages       map[string]StageOutcome `json:"stages"`
	OverallScore float64                 `json:"overall_score"`
	Status       string                  `json:"status"`
	Issues       []string                `json:"issues,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}

// StageScore returns the recorded score for a stage, zero when the
// submission never reached it.
func (fr *FinalRecord) StageScore(stage string) float64 {
	if o, ok := fr.Stages[stage]; ok {
		return o.Score
	}
	return 0
}

// StagePassed reports whether the submission passed a stage. A stage
// the submission never reached counts as not passed.
func (fr *FinalRecord) StagePassed(stage string) bool {
	if o, ok := fr.Stages[stage]; ok {
		return o.Passed
	}
	return false
}
