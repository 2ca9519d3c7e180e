package metrics

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTMLFile pulls metrics out of HTML backtest reports. Tables
// are read with the same two layouts as markdown; anything outside a
// table falls through to the text patterns on the page body.
func (x *Extractor) extractHTMLFile(path, relPath string, ext *Extraction) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return
	}

	values := make(map[string]float64)

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}

		lower := strings.ToLower(cells[0])
		if len(cells) >= 4 && (strings.Contains(lower, "combined") || strings.Contains(lower, "total") || strings.Contains(lower, "overall")) {
			setIfParsable(values, KeyTotalReturn, cells[1])
			setIfParsable(values, KeyMaxDrawdown, cells[2])
			setIfParsable(values, KeySharpeRatio, cells[3])
			if len(cells) >= 5 {
				setIfParsable(values, KeyTotalTrades, cells[4])
			}
			return
		}
		if len(cells) >= 2 {
			if key, ok := metricKeyForLabel(cells[0]); ok {
				setIfParsable(values, key, cells[1])
			}
		}
	})

	merge(ext, relPath, values)
	merge(ext, relPath, parseTextPatterns(doc.Text()))
}
