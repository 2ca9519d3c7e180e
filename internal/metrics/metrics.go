// Package metrics extracts backtest performance figures from
// submission artifacts. Submissions report results in wildly
// different shapes, so extraction runs a chain of strategies over
// markdown reports, HTML reports, free text and raw CSV equity
// curves; the first strategy to produce a value for a metric wins.
package metrics

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/scan"
)

// Metric keys produced by extraction.
const (
	KeyTotalReturn = "total_return"
	KeyTotalPnL    = "total_pnl"
	KeyMaxDrawdown = "max_drawdown"
	KeySharpeRatio = "sharpe_ratio"
	KeyTotalTrades = "total_trades"
	KeyWinRate     = "win_rate"
)

// sharpe values outside this range are reporting noise, not results
const (
	sharpeMin = -5.0
	sharpeMax = 10.0
)

const maxCSVBytes = 1 << 20

// Extraction is the merged result of the strategy chain.
type Extraction struct {
	Values map[string]float64
	// Sources maps each metric key to the relative path of the file
	// that supplied it.
	Sources map[string]string
}

// Has reports whether a metric was found.
func (e *Extraction) Has(key string) bool {
	_, ok := e.Values[key]
	return ok
}

// Get returns a metric value, or 0 when absent.
func (e *Extraction) Get(key string) float64 {
	return e.Values[key]
}

// Extractor runs the extraction chain over a submission directory.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract walks the submission and merges metrics from every
// recognized artifact. Markdown reports are tried first, then HTML,
// then plain text, then CSV data files. A metric already found is
// never overwritten by a later file.
func (x *Extractor) Extract(submissionPath string) (*Extraction, error) {
	ext := &Extraction{
		Values:  make(map[string]float64),
		Sources: make(map[string]string),
	}

	passes := []struct {
		exts    []string
		extract func(path, relPath string, ext *Extraction)
	}{
		{[]string{".md", ".markdown"}, x.extractMarkdownFile},
		{[]string{".html", ".htm"}, x.extractHTMLFile},
		{[]string{".txt"}, x.extractTextFile},
		{[]string{".csv"}, x.extractCSVFile},
	}

	for _, pass := range passes {
		files, err := scan.ListFiles(submissionPath, pass.exts...)
		if err != nil {
			return nil, fmt.Errorf("failed to list %v files: %w", pass.exts, err)
		}
		for _, relPath := range files {
			pass.extract(filepath.Join(submissionPath, relPath), relPath, ext)
		}
	}

	finalize(ext)
	return ext, nil
}

func (x *Extractor) extractMarkdownFile(path, relPath string, ext *Extraction) {
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	text := scan.DecodeText(content)
	merge(ext, relPath, parseMarkdownTables(text))
	merge(ext, relPath, parseTextPatterns(text))
}

func (x *Extractor) extractTextFile(path, relPath string, ext *Extraction) {
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	merge(ext, relPath, parseTextPatterns(scan.DecodeText(content)))
}

// merge copies values for keys not yet present, validating sharpe.
// Drawdowns are reported with either sign convention, so the
// magnitude is stored.
func merge(ext *Extraction, relPath string, values map[string]float64) {
	for key, value := range values {
		if _, ok := ext.Values[key]; ok {
			continue
		}
		if key == KeySharpeRatio && (value < sharpeMin || value > sharpeMax) {
			continue
		}
		if key == KeyMaxDrawdown {
			value = math.Abs(value)
		}
		ext.Values[key] = value
		ext.Sources[key] = relPath
	}
}

// finalize back-computes the PnL and return figures from each other
// against the fixed contest starting capital when only one was
// reported.
func finalize(ext *Extraction) {
	_, hasPnL := ext.Values[KeyTotalPnL]
	_, hasReturn := ext.Values[KeyTotalReturn]

	switch {
	case hasPnL && !hasReturn:
		ext.Values[KeyTotalReturn] = ext.Values[KeyTotalPnL] / catalog.StartingCapital * 100
		ext.Sources[KeyTotalReturn] = ext.Sources[KeyTotalPnL]
	case hasReturn && !hasPnL:
		ext.Values[KeyTotalPnL] = ext.Values[KeyTotalReturn] / 100 * catalog.StartingCapital
		ext.Sources[KeyTotalPnL] = ext.Sources[KeyTotalReturn]
	}
}

// parseNumber strips report decoration ($ , % * + whitespace) and
// parses the remainder as a float.
func parseNumber(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "*")
	cleaned = strings.TrimSpace(cleaned)
	replacer := strings.NewReplacer("$", "", ",", "", "%", "", "+", "", " ", "")
	cleaned = replacer.Replace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// metricKeyForLabel maps a human metric label to a metric key.
func metricKeyForLabel(label string) (string, bool) {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "win rate") || strings.Contains(l, "win_rate"):
		return KeyWinRate, true
	case strings.Contains(l, "return"):
		return KeyTotalReturn, true
	case strings.Contains(l, "pnl") || strings.Contains(l, "profit"):
		return KeyTotalPnL, true
	case strings.Contains(l, "drawdown"):
		return KeyMaxDrawdown, true
	case strings.Contains(l, "sharpe"):
		return KeySharpeRatio, true
	case strings.Contains(l, "trade"):
		return KeyTotalTrades, true
	}
	return "", false
}
