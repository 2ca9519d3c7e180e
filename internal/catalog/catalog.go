// Package catalog holds the declarative rule tables shared by the
// evaluation stages: dangerous-code patterns, the import allow-list,
// file-artifact rules and asset/data constraints. Checkers consume
// these tables; they never define patterns inline.
package catalog

import (
	"regexp"

	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// Rule is one compiled pattern with its verdict metadata.
type Rule struct {
	Pattern        *regexp.Regexp
	Severity       contracts.Severity
	Category       string
	Description    string
	Recommendation string
}

// Catalog is an ordered rule list. Order matters: scanners apply
// rules in catalog order within each line.
type Catalog struct {
	Name  string
	Rules []Rule
}

func mustRules(severity contracts.Severity, category, recommendation string, patterns ...string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{
			Pattern:        regexp.MustCompile(`(?i)` + p),
			Severity:       severity,
			Category:       category,
			Description:    "Dangerous pattern detected: " + p,
			Recommendation: recommendation,
		})
	}
	return rules
}
