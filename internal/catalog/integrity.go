package catalog

import (
	"regexp"

	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// Integrity categories reported by the data integrity stage.
const (
	CategoryHardcodedData   = "Hardcoded Data"
	CategorySyntheticData   = "Synthetic Data"
	CategoryHindsightBias   = "Hindsight Bias"
	CategoryTimestampManip  = "Timestamp Manipulation"
	CategoryUnrealisticData = "Unrealistic Data"
	CategoryNonMarketHours  = "Non-Market Hours Trading"
	CategoryDataSourceInfo  = "Data Source Info"
)

// HardcodedData matches literal market values assigned in strategy
// code. Only price-sized numbers are targeted so tuning parameters do
// not trip the rules.
func HardcodedData() *Catalog {
	return &Catalog{Name: "hardcoded_data", Rules: mustRules(
		contracts.SeverityCritical, CategoryHardcodedData,
		"Use authentic market data from yfinance or other legitimate sources",
		`(?:market_|current_|last_)?price\s*=\s*[\d.]{4,}`,
		`(?:market_)?close\s*=\s*[\d.]{4,}`,
		`(?:market_)?open\s*=\s*[\d.]{4,}`,
		`(?:market_)?high\s*=\s*[\d.]{4,}`,
		`(?:market_)?low\s*=\s*[\d.]{4,}`,
		`(?:bid_|ask_)price\s*=\s*[\d.]{4,}`,
		`(?:market_)?volume\s*=\s*[\d.]{6,}`,
		`df\[['"](Close|Open|High|Low|Volume)['"]\]\s*=\s*[\d.]{4,}`,
		`data\[['"](Close|Open|High|Low|Volume)['"]\]\s*=\s*[\d.]{4,}`,
		`np\.array\(\[[\d.,\s]{20,}\]\)`,
		`if\s+.*price.*[>=<]+\s*[\d.]{4,}`,
		`while\s+.*price.*[>=<]+\s*[\d.]{4,}`,
	)}
}

// SyntheticData matches random or algorithmic data generation. Hits
// only count when the line also mentions a market-data term; the
// checker applies that gate.
func SyntheticData() *Catalog {
	return &Catalog{Name: "synthetic_data", Rules: mustRules(
		contracts.SeverityHigh, CategorySyntheticData,
		"Remove synthetic data generation; use only real market data",
		`np\.random\.(randn|normal|uniform|randint|choice)`,
		`random\.(gauss|uniform|normalvariate|randint|choice|sample)`,
		`np\.linspace\(`,
		`np\.arange\(`,
		`range\(\d{2,}\)`,
		`np\.(ones|zeros|full)\(\d+`,
		`fake.*data`,
		`mock.*data`,
		`dummy.*data`,
		`simulate.*data`,
		`synthetic.*data`,
		`artificial.*data`,
		`generated.*prices`,
		`math\.sin\(.*\)\s*\*.*price`,
		`math\.cos\(.*\)\s*\*.*price`,
		`np\.sin\(.*\)\s*\*.*[\d.]+`,
	)}
}

// HindsightBias matches constructs that consume future data.
func HindsightBias() *Catalog {
	return &Catalog{Name: "hindsight_bias", Rules: mustRules(
		contracts.SeverityCritical, CategoryHindsightBias,
		"Ensure the strategy only uses historical data available at decision time",
		`shift\(-\d+\)`,
		`\.loc\[.*:.*\+.*\]`,
		`future.*data`,
		`lookahead`,
		`tomorrow`,
		`next.*day`,
		`forecast.*actual`,
	)}
}

// TimestampManipulation matches fabricated or impossible timestamps.
// These patterns are case sensitive by design.
func TimestampManipulation() *Catalog {
	patterns := []string{
		`datetime\(202[0-4].*23:59`,
		`datetime\(.*00:00:00\)`,
		`pd\.Timestamp\(.*weekend`,
		`holiday.*trading`,
		`3[2-9]:\d{2}:\d{2}`,
		`[6-9][0-9]:\d{2}:\d{2}`,
	}
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{
			Pattern:        regexp.MustCompile(p),
			Severity:       contracts.SeverityHigh,
			Category:       CategoryTimestampManip,
			Description:    "Suspicious timestamp pattern",
			Recommendation: "Use authentic timestamps from market data",
		})
	}
	return &Catalog{Name: "timestamp_manipulation", Rules: rules}
}

// marketTerms gate the synthetic-data rules: a generation call only
// counts when the same line touches market data.
var marketTerms = []string{"price", "close", "open", "high", "low", "volume", "data", "ohlc"}

// MarketTerms returns the context terms for the synthetic-data gate.
func MarketTerms() []string { return marketTerms }

// legitSkipTerms mark lines the hardcoded-data rules must skip:
// parameter tuning, config lookups and zero initializers.
var legitSkipTerms = []string{
	"config.get", "_period", "_threshold", "param", "optimization", "range",
}

// LegitSkipTerms returns the false-positive guard terms for the
// hardcoded-data check.
func LegitSkipTerms() []string { return legitSkipTerms }
