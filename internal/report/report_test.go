package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/pkg/config"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir(), logger.New(&config.Config{LogLevel: "error", LogFormat: "json"}))
	w.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return w
}

func securityResult(id string, passed bool, score float64, issues []contracts.Issue) *contracts.StageResult {
	sub := contracts.Submission{ID: id, Participant: "Alice"}
	r := contracts.NewStageResult(sub, contracts.StageSecurity, passed, score, issues)
	r.FilesScanned = 3
	return r
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestWriteStage_SecurityFiles(t *testing.T) {
	w := testWriter(t)

	results := []*contracts.StageResult{
		securityResult("#01 (Alice)", true, 95, []contracts.Issue{
			{Severity: contracts.SeverityMedium, Category: "File Write", Description: "Write to file", FilePath: "strategy.py", LineNumber: 12},
		}),
		securityResult("#02 (Bob)", false, 40, []contracts.Issue{
			{Severity: contracts.SeverityCritical, Category: "Code Injection", Description: "Use of eval()", FilePath: "strategy.py", LineNumber: 7},
		}),
	}

	require.NoError(t, w.WriteStage(contracts.StageSecurity, results))

	summary := readFile(t, w.OutputDir(), "security_audit_summary.json")
	var parsed struct {
		Stage     string `json:"stage"`
		Evaluated int    `json:"evaluated"`
		Passed    int    `json:"passed"`
		Results   []struct {
			SubmissionID string  `json:"submission_id"`
			Score        float64 `json:"score"`
			FilesScanned int     `json:"files_scanned"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(summary), &parsed))
	assert.Equal(t, contracts.StageSecurity, parsed.Stage)
	assert.Equal(t, 2, parsed.Evaluated)
	assert.Equal(t, 1, parsed.Passed)
	require.Len(t, parsed.Results, 2)
	assert.Equal(t, 3, parsed.Results[0].FilesScanned)

	detailed := readFile(t, w.OutputDir(), "security_audit_detailed.json")
	assert.Contains(t, detailed, "Use of eval()")

	md := readFile(t, w.OutputDir(), "security_audit_report.md")
	assert.Contains(t, md, "# Security Audit Report")
	assert.Contains(t, md, "Evaluated: 2 | Passed: 1 | Failed: 1")
	assert.Contains(t, md, "| #02 (Bob) | Alice | FAIL | 40.0 | 1 | 0 | 0 | 0 |")
	assert.Contains(t, md, "`strategy.py:7`")
}

func TestWriteStage_ComplianceHasNoMarkdown(t *testing.T) {
	w := testWriter(t)

	sub := contracts.Submission{ID: "#01 (Alice)", Participant: "Alice"}
	results := []*contracts.StageResult{
		contracts.NewStageResult(sub, contracts.StageCompliance, true, 100, nil),
	}
	require.NoError(t, w.WriteStage(contracts.StageCompliance, results))

	assert.FileExists(t, filepath.Join(w.OutputDir(), "strict_compliance_results.json"))

	entries, err := os.ReadDir(w.OutputDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteStage_UnknownStage(t *testing.T) {
	w := testWriter(t)
	assert.Error(t, w.WriteStage("popularity_contest", nil))
}

func TestWriteStage_MarkdownOrdersIssuesBySeverity(t *testing.T) {
	w := testWriter(t)

	results := []*contracts.StageResult{
		securityResult("#01 (Alice)", false, 54, []contracts.Issue{
			{Severity: contracts.SeverityLow, Category: "Unapproved Import", Description: "import requests"},
			{Severity: contracts.SeverityCritical, Category: "Code Injection", Description: "Use of exec()"},
		}),
	}
	require.NoError(t, w.WriteStage(contracts.StageSecurity, results))

	md := readFile(t, w.OutputDir(), "security_audit_report.md")
	criticalIdx := strings.Index(md, "Use of exec()")
	lowIdx := strings.Index(md, "import requests")
	require.GreaterOrEqual(t, criticalIdx, 0)
	require.GreaterOrEqual(t, lowIdx, 0)
	assert.Less(t, criticalIdx, lowIdx)
}

func TestWriteFinal(t *testing.T) {
	w := testWriter(t)

	records := []*contracts.FinalRecord{
		{
			Rank: 1, SubmissionID: "#01 (Alice)", Participant: "Alice",
			OverallScore: 97.5, Status: contracts.StatusPass,
			Stages: map[string]contracts.StageOutcome{
				contracts.StageSecurity:   {Passed: true, Score: 100},
				contracts.StageCompliance: {Passed: true, Score: 95},
				contracts.StageIntegrity:  {Passed: true, Score: 100},
				contracts.StageRules:      {Passed: true, Score: 95},
			},
		},
		{
			Rank: 2, SubmissionID: "#02 (Bob)", Participant: "Bob",
			OverallScore: 12.0, Status: contracts.StatusFail,
			Stages: map[string]contracts.StageOutcome{
				contracts.StageSecurity: {Passed: false, Score: 40},
			},
			Issues: []string{
				"Security Audit: Failed (40.0/100)",
				"Strict Compliance: Not Evaluated",
			},
		},
	}

	require.NoError(t, w.WriteFinal(records))

	raw := readFile(t, w.OutputDir(), FinalResultsFile)
	var parsed struct {
		Evaluated int `json:"evaluated"`
		Passed    int `json:"passed"`
		Rankings  []struct {
			Rank   int    `json:"rank"`
			Status string `json:"status"`
		} `json:"rankings"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &parsed))
	assert.Equal(t, 2, parsed.Evaluated)
	assert.Equal(t, 1, parsed.Passed)
	require.Len(t, parsed.Rankings, 2)

	md := readFile(t, w.OutputDir(), FinalReportFile)
	assert.Contains(t, md, "## Rankings")
	assert.Contains(t, md, "| 1 | #01 (Alice) | Alice | 97.5 | 100.0 | 95.0 | 100.0 | 95.0 | PASS |")
	// Unreached stages render as zero scores.
	assert.Contains(t, md, "| 2 | #02 (Bob) | Bob | 12.0 | 40.0 | 0.0 | 0.0 | 0.0 | FAIL |")
	assert.Contains(t, md, "## Failed Submissions")
	assert.Contains(t, md, "Strict Compliance: Not Evaluated")
	assert.NotContains(t, md, "### #01 (Alice)")
}

func TestStageTitle(t *testing.T) {
	assert.Equal(t, "Security Audit", StageTitle(contracts.StageSecurity))
	assert.Equal(t, "Contest Rules", StageTitle(contracts.StageRules))
	assert.Equal(t, "mystery", StageTitle("mystery"))
}
