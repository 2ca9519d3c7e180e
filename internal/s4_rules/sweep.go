package s4_rules

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/scan"
)

var (
	positionAssignPattern = regexp.MustCompile(`(?i)(?:max_)?position(?:_size|_pct|_ratio|_fraction)?\s*=\s*([\d.]+)`)
	positionScalePattern  = regexp.MustCompile(`(?i)(?:size|qty|amount)\s*=\s*(?:capital|balance|equity|cash)\s*\*\s*([\d.]+)`)
	intervalPattern       = regexp.MustCompile(`(?i)interval\s*[=:]\s*["']([^"']+)["']`)
	startDatePattern      = regexp.MustCompile(`(?i)start\s*[=:]\s*["'](\d{4}-\d{2}-\d{2})["']`)
	endDatePattern        = regexp.MustCompile(`(?i)end\s*[=:]\s*["'](\d{4}-\d{2}-\d{2})["']`)
)

// sweepCode scans all Python sources for configuration that violates
// the contest rules: oversized positions, forbidden data sources,
// wrong intervals, wrong backtest period, and assets outside the
// contest universe.
func (c *Checker) sweepCode(ctx context.Context, basePath string) ([]contracts.Issue, error) {
	pyFiles, err := scan.ListFiles(basePath, ".py")
	if err != nil {
		return nil, fmt.Errorf("failed to list python files: %w", err)
	}

	var issues []contracts.Issue
	for _, relPath := range pyFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, readIssue := scan.ReadTextFile(filepath.Join(basePath, relPath), relPath)
		if readIssue != nil {
			continue
		}

		for i, line := range strings.Split(content, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			lineNo := i + 1
			issues = append(issues, c.checkPositionSizing(trimmed, relPath, lineNo)...)
			issues = append(issues, c.checkDataSource(trimmed, relPath, lineNo)...)
			issues = append(issues, c.checkInterval(trimmed, relPath, lineNo)...)
			issues = append(issues, c.checkPeriod(trimmed, relPath, lineNo)...)
			issues = append(issues, c.checkAssets(trimmed, relPath, lineNo)...)
		}
	}
	return issues, nil
}

// checkPositionSizing flags position fractions above the contest
// limit. Values are read as a fraction when at most 1 and as a
// percentage when at most 100; larger numbers are absolute amounts
// and are ignored. 66.7 is the template's Kelly example and is never
// a real setting.
func (c *Checker) checkPositionSizing(line, relPath string, lineNo int) []contracts.Issue {
	match := positionAssignPattern.FindStringSubmatch(line)
	if match == nil {
		match = positionScalePattern.FindStringSubmatch(line)
	}
	if match == nil {
		return nil
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	if value == 66.7 || value == 0.667 {
		return nil
	}

	var fraction float64
	switch {
	case value <= 1:
		fraction = value
	case value <= 100:
		fraction = value / 100
	default:
		return nil
	}
	if fraction <= c.cfg.MaxPositionSize {
		return nil
	}

	return []contracts.Issue{{
		Severity:       contracts.SeverityHigh,
		Category:       CategoryPositionSizing,
		Description:    fmt.Sprintf("Position size %.0f%% exceeds the %.0f%% limit", fraction*100, c.cfg.MaxPositionSize*100),
		FilePath:       relPath,
		LineNumber:     lineNo,
		CodeSnippet:    line,
		Recommendation: "Cap position sizes at the contest limit",
	}}
}

func (c *Checker) checkDataSource(line, relPath string, lineNo int) []contracts.Issue {
	lower := strings.ToLower(line)
	for _, source := range catalog.ForbiddenDataSources {
		if !strings.Contains(lower, source) {
			continue
		}
		return []contracts.Issue{{
			Severity:       contracts.SeverityHigh,
			Category:       CategoryDataSource,
			Description:    fmt.Sprintf("Forbidden data source: %s", source),
			FilePath:       relPath,
			LineNumber:     lineNo,
			CodeSnippet:    line,
			Recommendation: "Use yfinance hourly data as mandated by the contest",
		}}
	}
	return nil
}

func (c *Checker) checkInterval(line, relPath string, lineNo int) []contracts.Issue {
	match := intervalPattern.FindStringSubmatch(line)
	if match == nil {
		return nil
	}
	interval := strings.ToLower(match[1])
	for _, forbidden := range catalog.ForbiddenIntervals {
		if interval == forbidden {
			return []contracts.Issue{{
				Severity:       contracts.SeverityHigh,
				Category:       CategoryDataInterval,
				Description:    fmt.Sprintf("Data interval %q is not the required %s", match[1], catalog.RequiredInterval),
				FilePath:       relPath,
				LineNumber:     lineNo,
				CodeSnippet:    line,
				Recommendation: "Backtest on hourly candles only",
			}}
		}
	}
	return nil
}

func (c *Checker) checkPeriod(line, relPath string, lineNo int) []contracts.Issue {
	var issues []contracts.Issue
	if match := startDatePattern.FindStringSubmatch(line); match != nil && match[1] != c.cfg.DataStart {
		issues = append(issues, c.periodIssue(match[1], c.cfg.DataStart, "start", line, relPath, lineNo))
	}
	if match := endDatePattern.FindStringSubmatch(line); match != nil && match[1] != c.cfg.DataEnd {
		issues = append(issues, c.periodIssue(match[1], c.cfg.DataEnd, "end", line, relPath, lineNo))
	}
	return issues
}

func (c *Checker) periodIssue(got, want, which, line, relPath string, lineNo int) contracts.Issue {
	return contracts.Issue{
		Severity:       contracts.SeverityMedium,
		Category:       CategoryBacktestPeriod,
		Description:    fmt.Sprintf("Backtest %s date %s differs from the required %s", which, got, want),
		FilePath:       relPath,
		LineNumber:     lineNo,
		CodeSnippet:    line,
		Recommendation: "Backtest exactly the contest period",
	}
}

var assetPatterns = buildAssetPatterns()

func buildAssetPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(catalog.ForbiddenAssetTokens))
	for _, token := range catalog.ForbiddenAssetTokens {
		patterns[token] = regexp.MustCompile(`["']` + token + `-?(?:USD|USDT)["']`)
	}
	return patterns
}

func (c *Checker) checkAssets(line, relPath string, lineNo int) []contracts.Issue {
	for token, pattern := range assetPatterns {
		if !pattern.MatchString(line) {
			continue
		}
		return []contracts.Issue{{
			Severity:       contracts.SeverityHigh,
			Category:       CategoryAssetUniverse,
			Description:    fmt.Sprintf("Asset %s is outside the contest universe", token),
			FilePath:       relPath,
			LineNumber:     lineNo,
			CodeSnippet:    line,
			Recommendation: fmt.Sprintf("Trade only %s", strings.Join(catalog.ValidAssets, ", ")),
		}}
	}
	return nil
}
