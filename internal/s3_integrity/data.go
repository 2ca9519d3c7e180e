package s3_integrity

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/scan"
)

// Backtest data thresholds. A single candle moving more than half its
// value, or volume a hundred times the median, points to fabricated
// input data.
const (
	maxPriceChangePct = 50.0
	maxVolumeSpike    = 100.0
	maxCSVRows        = 10000
)

var timestampPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}\s+(\d{2}):(\d{2}):\d{2})`)

// checkBacktestData inspects CSV artifacts for unrealistic price and
// volume series.
func (c *Checker) checkBacktestData(subPath string) []contracts.Issue {
	csvFiles, err := scan.ListFiles(subPath, ".csv")
	if err != nil {
		return nil
	}

	var issues []contracts.Issue
	for _, relPath := range csvFiles {
		header, rows, err := readCSV(filepath.Join(subPath, relPath))
		if err != nil {
			continue
		}

		if prices := column(header, rows, "close"); len(prices) > 1 {
			if maxChange := maxPctChange(prices); maxChange > maxPriceChangePct {
				issues = append(issues, contracts.Issue{
					Severity:       contracts.SeverityMedium,
					Category:       catalog.CategoryUnrealisticData,
					Description:    fmt.Sprintf("Extreme price change detected: %.1f%%", maxChange),
					FilePath:       relPath,
					Recommendation: "Verify data authenticity; extreme price changes may indicate manipulation",
				})
			}
		}

		if volumes := column(header, rows, "volume"); len(volumes) > 10 {
			if spike := maxMedianRatio(volumes); spike > maxVolumeSpike {
				issues = append(issues, contracts.Issue{
					Severity:       contracts.SeverityMedium,
					Category:       catalog.CategoryUnrealisticData,
					Description:    fmt.Sprintf("Extreme volume spike detected: %.0fx median", spike),
					FilePath:       relPath,
					Recommendation: "Verify volume data authenticity",
				})
			}
		}
	}
	return issues
}

// checkMarketHours scans trading logs and CSVs for timestamps outside
// NYSE hours (9:30 to 16:00). One finding per file is enough.
func (c *Checker) checkMarketHours(subPath string) []contracts.Issue {
	files, err := scan.ListFiles(subPath, ".log", ".csv")
	if err != nil {
		return nil
	}

	var issues []contracts.Issue
	for _, relPath := range files {
		content, readIssue := scan.ReadTextFile(filepath.Join(subPath, relPath), relPath)
		if readIssue != nil {
			continue
		}

		for i, line := range strings.Split(content, "\n") {
			m := timestampPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			hour, _ := strconv.Atoi(m[2])
			minute, _ := strconv.Atoi(m[3])
			if withinMarketHours(hour, minute) {
				continue
			}

			snippet := strings.TrimSpace(line)
			if len(snippet) > 100 {
				snippet = snippet[:100]
			}
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityMedium,
				Category:       catalog.CategoryNonMarketHours,
				Description:    fmt.Sprintf("Trading activity outside market hours: %s", m[1]),
				FilePath:       relPath,
				LineNumber:     i + 1,
				CodeSnippet:    snippet,
				Recommendation: "Ensure trading only occurs during market hours (9:30 AM - 4:00 PM EST)",
			})
			break
		}
	}
	return issues
}

// checkDataLoaders flags data loading files that download or fetch
// without any yfinance reference. Informational only.
func (c *Checker) checkDataLoaders(subPath string) []contracts.Issue {
	loaderFiles := []string{
		filepath.Join("reports", "backtest_runner.py"),
		filepath.Join("reports", "data_loader.py"),
	}

	var issues []contracts.Issue
	for _, relPath := range loaderFiles {
		raw, err := os.ReadFile(filepath.Join(subPath, relPath))
		if err != nil {
			continue
		}
		content := string(raw)
		lower := strings.ToLower(content)

		if (strings.Contains(lower, "download") || strings.Contains(lower, "fetch")) &&
			!strings.Contains(content, "yfinance") && !strings.Contains(content, "yf") {
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityLow,
				Category:       catalog.CategoryDataSourceInfo,
				Description:    "Custom data loading without clear yfinance reference",
				FilePath:       relPath,
				Recommendation: "Consider using yfinance for market data authenticity",
			})
		}
	}
	return issues
}

func withinMarketHours(hour, minute int) bool {
	after := hour > 9 || (hour == 9 && minute >= 30)
	before := hour < 16 || (hour == 16 && minute == 0)
	return after && before
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for len(rows) < maxCSVRows {
		row, err := reader.Read()
		if err != nil {
			break
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// column collects numeric values of a named column, matching the
// header case-insensitively.
func column(header []string, rows [][]string, name string) []float64 {
	idx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	var values []float64
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}

func maxPctChange(values []float64) float64 {
	maxChange := 0.0
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		change := math.Abs(values[i]-values[i-1]) / math.Abs(values[i-1]) * 100
		if change > maxChange {
			maxChange = change
		}
	}
	return maxChange
}

func maxMedianRatio(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}
	if median <= 0 {
		return 0
	}

	ratio := 0.0
	for _, v := range values {
		if r := v / median; r > ratio {
			ratio = r
		}
	}
	return ratio
}
