package metrics

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
)

const maxCSVRows = 1000

var equityColumnTokens = []string{"portfolio", "value", "pnl", "balance", "equity"}
var tradeColumnTokens = []string{"trade", "signal", "position", "action"}

// extractCSVFile derives metrics from raw trade logs and equity
// curves. An equity-like column yields return, PnL and drawdown; a
// trade-like column yields a trade count. Oversized files are data
// dumps, not results, and are skipped.
func (x *Extractor) extractCSVFile(path, relPath string, ext *Extraction) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxCSVBytes {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return
	}

	equityCol := findColumn(header, equityColumnTokens)
	tradeCol := findColumn(header, tradeColumnTokens)
	if equityCol < 0 && tradeCol < 0 {
		return
	}

	var equity []float64
	trades := 0
	for rows := 0; rows < maxCSVRows; rows++ {
		record, err := reader.Read()
		if err != nil {
			break
		}
		if equityCol >= 0 && equityCol < len(record) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[equityCol]), 64); err == nil {
				equity = append(equity, v)
			}
		}
		if tradeCol >= 0 && tradeCol < len(record) {
			if isTradeRow(record[tradeCol]) {
				trades++
			}
		}
	}

	values := make(map[string]float64)
	if len(equity) >= 2 && equity[0] != 0 {
		first, last := equity[0], equity[len(equity)-1]
		values[KeyTotalReturn] = (last - first) / first * 100
		values[KeyTotalPnL] = last - first
		values[KeyMaxDrawdown] = maxDrawdown(equity)
	}
	if tradeCol >= 0 && trades > 0 {
		values[KeyTotalTrades] = float64(trades)
	}
	merge(ext, relPath, values)
}

func findColumn(header []string, tokens []string) int {
	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		for _, token := range tokens {
			if strings.Contains(lower, token) {
				return i
			}
		}
	}
	return -1
}

func isTradeRow(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v != "" && v != "hold" && v != "none" && v != "0"
}

// maxDrawdown is the largest peak-to-trough decline of the series,
// as a percentage of the peak.
func maxDrawdown(equity []float64) float64 {
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
