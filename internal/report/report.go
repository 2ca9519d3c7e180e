// Package report renders stage and final evaluation results to the
// output directory as JSON for machines and Markdown for reviewers.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Output file names per stage.
var stageFiles = map[string]struct {
	summary  string
	detailed string
	markdown string
}{
	contracts.StageSecurity:   {summary: "security_audit_summary.json", detailed: "security_audit_detailed.json", markdown: "security_audit_report.md"},
	contracts.StageCompliance: {summary: "strict_compliance_results.json"},
	contracts.StageIntegrity:  {summary: "data_integrity_results.json"},
	contracts.StageRules:      {summary: "contest_rules_results.json", markdown: "contest_rules_summary.md"},
}

// Final output file names.
const (
	FinalResultsFile = "final_evaluation_results.json"
	FinalReportFile  = "final_evaluation_report.md"
)

// Writer renders evaluation output files.
type Writer struct {
	outputDir string
	log       *logger.Logger
	now       func() time.Time
}

// NewWriter creates a Writer targeting outputDir. The directory is
// created on first write.
func NewWriter(outputDir string, log *logger.Logger) *Writer {
	return &Writer{outputDir: outputDir, log: log, now: time.Now}
}

// OutputDir returns the directory the writer renders into.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

type stageSummary struct {
	Stage       string              `json:"stage"`
	GeneratedAt time.Time           `json:"generated_at"`
	Evaluated   int                 `json:"evaluated"`
	Passed      int                 `json:"passed"`
	Results     []stageSummaryEntry `json:"results"`
}

type stageSummaryEntry struct {
	SubmissionID   string                     `json:"submission_id"`
	Participant    string                     `json:"participant"`
	Passed         bool                       `json:"passed"`
	Skipped        bool                       `json:"skipped,omitempty"`
	Score          float64                    `json:"score"`
	SeverityCounts map[contracts.Severity]int `json:"severity_counts"`
	FilesScanned   int                        `json:"files_scanned,omitempty"`
}

type stageDetailed struct {
	Stage       string                   `json:"stage"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []*contracts.StageResult `json:"results"`
}

// WriteStage renders the per-stage output files for one completed
// stage.
func (w *Writer) WriteStage(stage string, results []*contracts.StageResult) error {
	files, ok := stageFiles[stage]
	if !ok {
		return fmt.Errorf("unknown stage: %s", stage)
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := stageSummary{
		Stage:       stage,
		GeneratedAt: w.now(),
		Evaluated:   len(results),
	}
	for _, r := range results {
		if r.Passed {
			summary.Passed++
		}
		summary.Results = append(summary.Results, stageSummaryEntry{
			SubmissionID:   r.SubmissionID,
			Participant:    r.Participant,
			Passed:         r.Passed,
			Skipped:        r.Skipped,
			Score:          r.Score,
			SeverityCounts: r.SeverityCounts,
			FilesScanned:   r.FilesScanned,
		})
	}
	if err := w.writeJSON(files.summary, summary); err != nil {
		return err
	}

	if files.detailed != "" {
		detailed := stageDetailed{Stage: stage, GeneratedAt: w.now(), Results: results}
		if err := w.writeJSON(files.detailed, detailed); err != nil {
			return err
		}
	}
	if files.markdown != "" {
		if err := w.writeFile(files.markdown, renderStageMarkdown(stage, results, w.now())); err != nil {
			return err
		}
	}

	w.log.WithFields(map[string]interface{}{
		"stage":  stage,
		"file":   files.summary,
		"output": w.outputDir,
	}).Info("stage report written")
	return nil
}

type finalResults struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Evaluated   int                      `json:"evaluated"`
	Passed      int                      `json:"passed"`
	Rankings    []*contracts.FinalRecord `json:"rankings"`
}

// WriteFinal renders the final ranking files.
func (w *Writer) WriteFinal(records []*contracts.FinalRecord) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out := finalResults{GeneratedAt: w.now(), Evaluated: len(records), Rankings: records}
	for _, r := range records {
		if r.Status == contracts.StatusPass {
			out.Passed++
		}
	}
	if err := w.writeJSON(FinalResultsFile, out); err != nil {
		return err
	}
	if err := w.writeFile(FinalReportFile, renderFinalMarkdown(records, w.now())); err != nil {
		return err
	}

	w.log.WithFields(map[string]interface{}{
		"file":   FinalResultsFile,
		"output": w.outputDir,
	}).Info("final report written")
	return nil
}

func (w *Writer) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return w.writeFile(name, string(data)+"\n")
}

func (w *Writer) writeFile(name, content string) error {
	path := filepath.Join(w.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
