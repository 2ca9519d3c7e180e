package catalog

// Contest constants enforced by the rules stage.
const (
	MaxDrawdownPct  = 50.0    // disqualification above this
	MinTrades       = 10      // disqualification below this
	StartingCapital = 10000.0 // exact contest capital in USD
	MaxPositionSize = 0.55    // 55% maximum exposure per trade

	RequiredDataStart = "2024-01-01"
	RequiredDataEnd   = "2024-06-30"
	RequiredInterval  = "1h"
	ExpectedCandles   = 4344

	ExcellentReturnPct = 25.0
	GoodReturnPct      = 10.0
)

// ValidAssets are the only tradable symbols.
var ValidAssets = []string{"BTC-USD", "ETH-USD", "BTCUSDT", "ETHUSDT"}

// ForbiddenDataSources disqualify a submission when found in code.
var ForbiddenDataSources = []string{
	"alpha_vantage", "quandl", "polygon", "iex", "binance", "coinbase", "kraken",
}

// ValidIntervalTerms mark hourly data usage.
var ValidIntervalTerms = []string{"1h", "hourly", "1 hour", "hour"}

// ForbiddenIntervals disqualify when explicitly configured.
var ForbiddenIntervals = []string{"1m", "5m", "15m", "30m", "1d", "1wk", "1mo", "daily", "minute"}

// ForbiddenAssetTokens are symbols outside the contest universe.
var ForbiddenAssetTokens = []string{
	"LTC", "XRP", "ADA", "DOT", "SOL", "AVAX", "MATIC", "LINK", "DOGE", "SHIB", "UNI", "AAVE",
}

// RequiredFiles is the exact structure contract with per-file
// severities, checked by the compliance stage.
var RequiredFiles = map[string]string{
	"your-strategy-template/your_strategy.py":    "CRITICAL",
	"your-strategy-template/startup.py":          "HIGH",
	"your-strategy-template/Dockerfile":          "HIGH",
	"your-strategy-template/requirements.txt":    "HIGH",
	"your-strategy-template/README.md":           "MEDIUM",
	"reports/backtest_runner.py":                 "CRITICAL",
	"reports/backtest_report.md":                 "HIGH",
	"trade_logic_explanation.md":                 "LOW",
}
