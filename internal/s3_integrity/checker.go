// Package s3_integrity implements the third elimination stage. It
// looks for fabricated inputs in strategy code: hardcoded market
// values, synthetic data generation, hindsight bias and manipulated
// timestamps.
package s3_integrity

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/scan"
	"github.com/msolomos/contest-arbiter/internal/scoring"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Config holds the integrity scan settings.
type Config struct {
	// DataSourceTokens are substrings recorded as informational data
	// source usage.
	DataSourceTokens []string
}

// DefaultConfig returns the contest integrity configuration.
func DefaultConfig() Config {
	return Config{
		DataSourceTokens: []string{"yf.download", "yfinance.download", "ticker.history"},
	}
}

// Checker runs the data integrity scan for one submission.
type Checker struct {
	cfg    Config
	policy scoring.Policy
	log    *logger.Logger
}

// New creates an integrity Checker.
func New(cfg Config, log *logger.Logger) *Checker {
	return &Checker{cfg: cfg, policy: scoring.IntegrityPolicy(), log: log}
}

// Name returns the stage identifier.
func (c *Checker) Name() string {
	return contracts.StageIntegrity
}

// Check scans all Python sources of one submission for data
// fabrication.
func (c *Checker) Check(ctx context.Context, sub contracts.Submission) (*contracts.StageResult, error) {
	pyFiles, err := scan.ListFiles(sub.Path, ".py")
	if err != nil {
		return nil, fmt.Errorf("failed to list python files: %w", err)
	}

	var issues []contracts.Issue
	for _, relPath := range pyFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, readIssue := scan.ReadTextFile(filepath.Join(sub.Path, relPath), relPath)
		if readIssue != nil {
			issues = append(issues, *readIssue)
			continue
		}
		issues = append(issues, c.scanFile(content, relPath)...)
	}

	issues = scan.Dedup(issues)

	// File-level findings are unique by construction and may share a
	// category within one file, so they bypass line dedup.
	issues = append(issues, c.checkBacktestData(sub.Path)...)
	issues = append(issues, c.checkMarketHours(sub.Path)...)
	issues = append(issues, c.checkDataLoaders(sub.Path)...)

	// informational data-source findings are reported but never
	// scored
	scored := make([]contracts.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.Category != catalog.CategoryDataSourceInfo {
			scored = append(scored, issue)
		}
	}
	counts := contracts.CountBySeverity(scored)
	score := c.policy.Score(counts)
	passed := c.policy.Pass(score, counts)

	c.log.WithFields(map[string]interface{}{
		"submission": sub.ID,
		"files":      len(pyFiles),
		"issues":     len(issues),
		"score":      score,
		"passed":     passed,
	}).Info("data integrity check completed")

	result := contracts.NewStageResult(sub, c.Name(), passed, score, issues)
	result.FilesScanned = len(pyFiles)
	return result, nil
}

func (c *Checker) scanFile(content, relPath string) []contracts.Issue {
	var issues []contracts.Issue

	issues = append(issues, scan.SourceFiltered(content, relPath, catalog.HardcodedData(), notTuningLine)...)
	issues = append(issues, scan.SourceFiltered(content, relPath, catalog.SyntheticData(), marketContextLine)...)
	issues = append(issues, scan.Source(content, relPath, catalog.HindsightBias())...)
	issues = append(issues, scan.Source(content, relPath, catalog.TimestampManipulation())...)
	issues = append(issues, c.dataSourceInfo(content, relPath)...)

	return issues
}

// notTuningLine guards the hardcoded-data rules against parameter
// tuning and config lookups.
func notTuningLine(line string) bool {
	lower := strings.ToLower(line)
	for _, term := range catalog.LegitSkipTerms() {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// marketContextLine gates the synthetic-data rules: generation calls
// only count when the line touches market data.
func marketContextLine(line string) bool {
	lower := strings.ToLower(line)
	for _, term := range catalog.MarketTerms() {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// dataSourceInfo records which market data APIs a submission calls.
// Informational only; legitimate sources are expected.
func (c *Checker) dataSourceInfo(content, relPath string) []contracts.Issue {
	var issues []contracts.Issue
	for i, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		for _, token := range c.cfg.DataSourceTokens {
			if !strings.Contains(lower, token) {
				continue
			}
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityLow,
				Category:       catalog.CategoryDataSourceInfo,
				Description:    fmt.Sprintf("Market data fetched via %s", token),
				FilePath:       relPath,
				LineNumber:     i + 1,
				CodeSnippet:    strings.TrimSpace(line),
				Recommendation: "No action needed for legitimate data sources",
			})
			break
		}
	}
	return issues
}
