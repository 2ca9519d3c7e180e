package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStageResult_DerivesCounts(t *testing.T) {
	sub := Submission{ID: "#01 (Alice)", Participant: "Alice"}
	issues := []Issue{
		{Severity: SeverityCritical, Category: "Code Injection"},
		{Severity: SeverityHigh, Category: "Network Access"},
		{Severity: SeverityHigh, Category: "File System Write"},
	}

	r := NewStageResult(sub, StageSecurity, false, 30.0, issues)

	assert.Equal(t, "#01 (Alice)", r.SubmissionID)
	assert.Equal(t, "Alice", r.Participant)
	assert.Equal(t, StageSecurity, r.Stage)
	assert.False(t, r.Passed)
	assert.Equal(t, 1, r.CriticalCount())
	assert.Equal(t, 2, r.HighCount())
	assert.False(t, r.Timestamp.IsZero())
}

func TestFinalRecord_StageAccessors(t *testing.T) {
	fr := FinalRecord{
		Stages: map[string]StageOutcome{
			StageSecurity: {Passed: true, Score: 95},
		},
	}

	assert.Equal(t, 95.0, fr.StageScore(StageSecurity))
	assert.True(t, fr.StagePassed(StageSecurity))

	// A stage never reached scores zero and counts as not passed
	assert.Equal(t, 0.0, fr.StageScore(StageRules))
	assert.False(t, fr.StagePassed(StageRules))
}
