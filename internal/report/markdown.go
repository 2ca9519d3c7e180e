package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// stageTitles for rendered reports.
var stageTitles = map[string]string{
	contracts.StageSecurity:   "Security Audit",
	contracts.StageCompliance: "Strict Compliance",
	contracts.StageIntegrity:  "Data Integrity",
	contracts.StageRules:      "Contest Rules",
}

// StageTitle returns the human name of a stage identifier.
func StageTitle(stage string) string {
	if title, ok := stageTitles[stage]; ok {
		return title
	}
	return stage
}

func renderStageMarkdown(stage string, results []*contracts.StageResult, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Report\n\n", StageTitle(stage))
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	fmt.Fprintf(&b, "Evaluated: %d | Passed: %d | Failed: %d\n\n", len(results), passed, len(results)-passed)

	b.WriteString("| Submission | Participant | Status | Score | Critical | High | Medium | Low |\n")
	b.WriteString("|------------|-------------|--------|-------|----------|------|--------|-----|\n")
	for _, r := range results {
		status := "FAIL"
		switch {
		case r.Skipped:
			status = "SKIP"
		case r.Passed:
			status = "PASS"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.1f | %d | %d | %d | %d |\n",
			r.SubmissionID, r.Participant, status, r.Score,
			r.SeverityCounts[contracts.SeverityCritical],
			r.SeverityCounts[contracts.SeverityHigh],
			r.SeverityCounts[contracts.SeverityMedium],
			r.SeverityCounts[contracts.SeverityLow])
	}
	b.WriteString("\n")

	for _, r := range results {
		if len(r.Issues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (%s)\n\n", r.SubmissionID, r.Participant)
		issues := append([]contracts.Issue(nil), r.Issues...)
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Severity.Order() < issues[j].Severity.Order()
		})
		for _, issue := range issues {
			location := ""
			if issue.FilePath != "" {
				location = " `" + issue.FilePath
				if issue.LineNumber > 0 {
					location += fmt.Sprintf(":%d", issue.LineNumber)
				}
				location += "`"
			}
			fmt.Fprintf(&b, "- **%s** [%s] %s%s\n", issue.Severity, issue.Category, issue.Description, location)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderFinalMarkdown(records []*contracts.FinalRecord, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Final Evaluation Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	passed := 0
	for _, r := range records {
		if r.Status == contracts.StatusPass {
			passed++
		}
	}
	fmt.Fprintf(&b, "Submissions: %d | Passed: %d | Failed: %d\n\n", len(records), passed, len(records)-passed)

	b.WriteString("## Rankings\n\n")
	b.WriteString("| Rank | Submission | Participant | Overall | Security | Compliance | Integrity | Rules | Status |\n")
	b.WriteString("|------|------------|-------------|---------|----------|------------|-----------|-------|--------|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %d | %s | %s | %.1f | %.1f | %.1f | %.1f | %.1f | %s |\n",
			r.Rank, r.SubmissionID, r.Participant, r.OverallScore,
			r.StageScore(contracts.StageSecurity),
			r.StageScore(contracts.StageCompliance),
			r.StageScore(contracts.StageIntegrity),
			r.StageScore(contracts.StageRules),
			r.Status)
	}
	b.WriteString("\n")

	var failed []*contracts.FinalRecord
	for _, r := range records {
		if r.Status != contracts.StatusPass {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		b.WriteString("## Failed Submissions\n\n")
		for _, r := range failed {
			fmt.Fprintf(&b, "### %s (%s)\n\n", r.SubmissionID, r.Participant)
			for _, issue := range r.Issues {
				fmt.Fprintf(&b, "- %s\n", issue)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
