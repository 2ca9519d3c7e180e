package commands

import (
	"fmt"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/report"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// All commands share the same table output
// ═══════════════════════════════════════════════════════════

// PrintStageHeader prints a formatted stage header.
func PrintStageHeader(stage string, submissions int) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", report.StageTitle(stage))
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Submissions : %d\n", submissions)
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintStageResults prints per-submission stage verdicts.
func PrintStageResults(results []*contracts.StageResult) {
	passed := 0
	for _, r := range results {
		status := "FAIL"
		if r.Passed {
			status = "PASS"
			passed++
		}
		if r.Skipped {
			status = "SKIP"
		}

		fmt.Printf("  [%s] %-30s %6.1f/100  (C:%d H:%d M:%d L:%d)\n",
			status, r.SubmissionID, r.Score,
			r.SeverityCounts[contracts.SeverityCritical],
			r.SeverityCounts[contracts.SeverityHigh],
			r.SeverityCounts[contracts.SeverityMedium],
			r.SeverityCounts[contracts.SeverityLow])
	}

	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Passed: %d/%d\n", passed, len(results))
	fmt.Println()
}

// PrintRanking prints the final ranking table.
func PrintRanking(records []*contracts.FinalRecord) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Final Ranking")
	fmt.Println("───────────────────────────────────────────────────────────")

	for _, rec := range records {
		fmt.Printf("  #%-3d %-30s %-12s %6.2f  [%s]\n",
			rec.Rank, rec.SubmissionID, rec.Participant, rec.OverallScore, rec.Status)
	}

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
}

// PrintCompletion prints the run completion message.
func PrintCompletion(outputDir string, duration float64) {
	fmt.Printf("✅ Evaluation completed in %.2fs\n", duration)
	fmt.Printf("   Reports written to %s\n", outputDir)
}
