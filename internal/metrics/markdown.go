package metrics

import (
	"regexp"
	"strings"
)

// parseMarkdownTables scans markdown table rows for performance
// figures. Two layouts are recognized: a combined summary row with
// return, drawdown, sharpe and trade columns, and the two-column
// metric/value layout.
func parseMarkdownTables(text string) map[string]float64 {
	values := make(map[string]float64)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}

		cells := splitTableRow(trimmed)
		if len(cells) == 0 || isSeparatorRow(cells) {
			continue
		}

		lower := strings.ToLower(cells[0])
		if len(cells) >= 4 && (strings.Contains(lower, "combined") || strings.Contains(lower, "total") || strings.Contains(lower, "overall")) {
			setIfParsable(values, KeyTotalReturn, cells[1])
			setIfParsable(values, KeyMaxDrawdown, cells[2])
			setIfParsable(values, KeySharpeRatio, cells[3])
			if len(cells) >= 5 {
				setIfParsable(values, KeyTotalTrades, cells[4])
			}
			continue
		}

		if len(cells) >= 2 {
			if key, ok := metricKeyForLabel(cells[0]); ok {
				setIfParsable(values, key, cells[1])
			}
		}
	}

	return values
}

func splitTableRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 3 {
		return nil
	}
	// drop the empty fragments before the first and after the last pipe
	cells := parts[1 : len(parts)-1]
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}
	return true
}

func setIfParsable(values map[string]float64, key, raw string) {
	if _, exists := values[key]; exists {
		return
	}
	if value, ok := parseNumber(raw); ok {
		values[key] = value
	}
}

var textPatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{KeyTotalReturn, regexp.MustCompile(`(?i)total\s+returns?\s*[:=]\s*\**([+-]?\$?[\d,]+\.?\d*)\s*%?`)},
	{KeyTotalPnL, regexp.MustCompile(`(?i)(?:total\s+)?pnl\s*[:=]\s*\**([+-]?\$?[\d,]+\.?\d*)`)},
	{KeyMaxDrawdown, regexp.MustCompile(`(?i)max(?:imum)?\s+drawdown\s*[:=]\s*\**([+-]?[\d,]+\.?\d*)\s*%?`)},
	{KeySharpeRatio, regexp.MustCompile(`(?i)sharpe(?:\s+ratio)?\s*[:=]\s*\**([+-]?[\d,]+\.?\d*)`)},
	{KeyTotalTrades, regexp.MustCompile(`(?i)(?:total\s+|number\s+of\s+)?trades\s*[:=]\s*\**([\d,]+)`)},
	{KeyWinRate, regexp.MustCompile(`(?i)win\s*rate\s*[:=]\s*\**([\d,]+\.?\d*)\s*%?`)},
	// sharpe reported as a blended figure, e.g. "Combined: 1.2/1.5 = **1.38**"
	{KeySharpeRatio, regexp.MustCompile(`(?i)combined:\s*[\d./\s]+=\s*\**([+-]?\d+\.?\d*)\**`)},
}

// parseTextPatterns extracts metrics from free-form report prose.
func parseTextPatterns(text string) map[string]float64 {
	values := make(map[string]float64)
	for _, tp := range textPatterns {
		if _, exists := values[tp.key]; exists {
			continue
		}
		match := tp.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if value, ok := parseNumber(match[1]); ok {
			values[tp.key] = value
		}
	}
	return values
}
