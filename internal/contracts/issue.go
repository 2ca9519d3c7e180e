package contracts

// Issue is a single finding against a submission. Issues are value
// objects: once created they are never mutated, only collected.
type Issue struct {
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	FilePath       string   `json:"file_path,omitempty"`
	LineNumber     int      `json:"line_number,omitempty"`
	CodeSnippet    string   `json:"code_snippet,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// CountBySeverity tallies issues per severity level. All four levels
// are always present in the result, zero-valued when absent.
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := map[Severity]int{
		SeverityCritical: 0,
		SeverityHigh:     0,
		SeverityMedium:   0,
		SeverityLow:      0,
	}
	for _, iss := range issues {
		counts[iss.Severity]++
	}
	return counts
}

// HasCritical reports whether any issue is CRITICAL.
func HasCritical(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
