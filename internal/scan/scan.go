// Package scan applies rule catalogs to submission source text line
// by line, with comment suppression and issue deduplication.
package scan

import (
	"strings"
	"unicode/utf8"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// Source applies every catalog rule to each non-comment line and
// returns the findings in deterministic order: lines outermost, rules
// in catalog order within a line.
func Source(content, filePath string, cat *catalog.Catalog) []contracts.Issue {
	var issues []contracts.Issue

	for lineNum, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") {
			continue
		}

		for i := range cat.Rules {
			rule := &cat.Rules[i]
			if !rule.Pattern.MatchString(line) {
				continue
			}
			issues = append(issues, contracts.Issue{
				Severity:       rule.Severity,
				Category:       rule.Category,
				Description:    rule.Description,
				FilePath:       filePath,
				LineNumber:     lineNum + 1,
				CodeSnippet:    stripped,
				Recommendation: rule.Recommendation,
			})
		}
	}

	return issues
}

// SourceFiltered is Source with a per-line gate: a rule hit only
// counts when keep(line) is true. Used for context-sensitive catalogs
// like synthetic-data detection.
func SourceFiltered(content, filePath string, cat *catalog.Catalog, keep func(line string) bool) []contracts.Issue {
	var issues []contracts.Issue

	for lineNum, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") {
			continue
		}
		if keep != nil && !keep(line) {
			continue
		}

		for i := range cat.Rules {
			rule := &cat.Rules[i]
			if !rule.Pattern.MatchString(line) {
				continue
			}
			issues = append(issues, contracts.Issue{
				Severity:       rule.Severity,
				Category:       rule.Category,
				Description:    rule.Description,
				FilePath:       filePath,
				LineNumber:     lineNum + 1,
				CodeSnippet:    stripped,
				Recommendation: rule.Recommendation,
			})
		}
	}

	return issues
}

// Dedup collapses issues sharing (category, file, line) to the first
// occurrence, so a pattern rule and a structural hit on the same line
// count once. Order is otherwise preserved.
func Dedup(issues []contracts.Issue) []contracts.Issue {
	type key struct {
		category string
		file     string
		line     int
	}
	seen := make(map[key]bool, len(issues))
	out := issues[:0]
	for _, iss := range issues {
		k := key{iss.Category, iss.FilePath, iss.LineNumber}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, iss)
	}
	return out
}

// DecodeText interprets raw bytes as UTF-8, falling back to Latin-1
// when the content is not valid UTF-8. Latin-1 decoding cannot fail:
// every byte maps to exactly one rune.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for _, b := range raw {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}
