// Package s4_rules implements the final elimination stage. It
// validates extracted backtest results against the contest rules:
// risk limits, trading activity, the fixed starting capital, position
// sizing, and the mandated data source, interval and period.
package s4_rules

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/metrics"
	"github.com/msolomos/contest-arbiter/internal/scan"
	"github.com/msolomos/contest-arbiter/internal/scoring"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Issue categories reported by this stage.
const (
	CategoryMissingMetrics  = "Missing Metrics"
	CategoryRiskLimits      = "Risk Limits"
	CategoryTradingActivity = "Trading Activity"
	CategoryCapital         = "Capital Consistency"
	CategoryPositionSizing  = "Position Sizing"
	CategoryDataSource      = "Data Source"
	CategoryDataInterval    = "Data Interval"
	CategoryBacktestPeriod  = "Backtest Period"
	CategoryAssetUniverse   = "Asset Universe"
	CategoryRealism         = "Unrealistic Performance"
	CategoryPoorPerformance = "Poor Performance"
)

// Realism thresholds for reported performance figures.
const (
	maxPlausibleReturnPct = 1000
	minPlausibleReturnPct = -90
	maxPlausibleSharpe    = 10
	minPlausibleSharpe    = -2
)

// requiredMetrics must be extractable from every submission's
// backtest artifacts.
var requiredMetrics = []string{
	metrics.KeyTotalPnL,
	metrics.KeyMaxDrawdown,
	metrics.KeyTotalTrades,
}

// Config holds the contest rule thresholds.
type Config struct {
	MaxDrawdownPct  float64
	MinTrades       int
	StartingCapital float64
	MaxPositionSize float64

	// CapitalTolerance is the implied-capital deviation in dollars
	// above which a MEDIUM inconsistency is reported;
	// CapitalHardLimit upgrades it to CRITICAL.
	CapitalTolerance float64
	CapitalHardLimit float64

	DataStart string
	DataEnd   string
}

// DefaultConfig returns the published contest rules.
func DefaultConfig() Config {
	return Config{
		MaxDrawdownPct:   catalog.MaxDrawdownPct,
		MinTrades:        catalog.MinTrades,
		StartingCapital:  catalog.StartingCapital,
		MaxPositionSize:  catalog.MaxPositionSize,
		CapitalTolerance: 500,
		CapitalHardLimit: 1000,
		DataStart:        catalog.RequiredDataStart,
		DataEnd:          catalog.RequiredDataEnd,
	}
}

// Checker validates one submission against the contest rules.
type Checker struct {
	cfg       Config
	policy    scoring.Policy
	extractor *metrics.Extractor
	log       *logger.Logger
}

// New creates a rules Checker.
func New(cfg Config, log *logger.Logger) *Checker {
	return &Checker{
		cfg:       cfg,
		policy:    scoring.RulesPolicy(),
		extractor: metrics.NewExtractor(),
		log:       log,
	}
}

// Name returns the stage identifier.
func (c *Checker) Name() string {
	return contracts.StageRules
}

// Check extracts backtest metrics and validates them, then sweeps the
// code for configuration that violates the rules. Strong results earn
// a score bonus on top of the deduction-based base score.
func (c *Checker) Check(ctx context.Context, sub contracts.Submission) (*contracts.StageResult, error) {
	ext, err := c.extractor.Extract(sub.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract metrics: %w", err)
	}

	issues := c.checkMetrics(ext)

	codeIssues, err := c.sweepCode(ctx, sub.Path)
	if err != nil {
		return nil, err
	}
	// Metric findings carry no file or line and may share a category
	// (return and Sharpe realism), so only the code sweep is deduped.
	issues = append(issues, scan.Dedup(codeIssues)...)
	counts := contracts.CountBySeverity(issues)
	score := scoring.Clamp(c.policy.Score(counts) + scoring.PerformanceBonus(ext))
	passed := c.policy.Pass(score, counts)

	c.log.WithFields(map[string]interface{}{
		"submission": sub.ID,
		"issues":     len(issues),
		"score":      score,
		"passed":     passed,
	}).Info("contest rules check completed")

	result := contracts.NewStageResult(sub, c.Name(), passed, score, issues)
	result.Metrics = ext.Values
	return result, nil
}

func (c *Checker) checkMetrics(ext *metrics.Extraction) []contracts.Issue {
	var issues []contracts.Issue

	var missing []string
	for _, key := range requiredMetrics {
		if !ext.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, contracts.Issue{
			Severity:       contracts.SeverityHigh,
			Category:       CategoryMissingMetrics,
			Description:    fmt.Sprintf("Missing required metrics: %s", strings.Join(missing, ", ")),
			Recommendation: "Report PnL, max drawdown and trade count in the backtest results",
		})
	}

	if ext.Has(metrics.KeyMaxDrawdown) && ext.Get(metrics.KeyMaxDrawdown) > c.cfg.MaxDrawdownPct {
		issues = append(issues, contracts.Issue{
			Severity:       contracts.SeverityCritical,
			Category:       CategoryRiskLimits,
			Description:    fmt.Sprintf("Max drawdown %.1f%% exceeds the %.0f%% limit", ext.Get(metrics.KeyMaxDrawdown), c.cfg.MaxDrawdownPct),
			Recommendation: "Reduce position sizes or add risk controls",
		})
	}

	if ext.Has(metrics.KeyTotalTrades) && int(ext.Get(metrics.KeyTotalTrades)) < c.cfg.MinTrades {
		issues = append(issues, contracts.Issue{
			Severity:       contracts.SeverityCritical,
			Category:       CategoryTradingActivity,
			Description:    fmt.Sprintf("Only %d trades executed, minimum is %d", int(ext.Get(metrics.KeyTotalTrades)), c.cfg.MinTrades),
			Recommendation: "The strategy must trade actively over the contest period",
		})
	}

	issues = append(issues, c.checkCapital(ext)...)
	issues = append(issues, c.checkRealism(ext)...)
	return issues
}

// checkRealism flags reported figures that fall outside plausible
// bounds. Implausibly strong numbers are treated as likely fabricated
// or miscalculated; very weak ones are noted but weigh less.
func (c *Checker) checkRealism(ext *metrics.Extraction) []contracts.Issue {
	var issues []contracts.Issue

	if ext.Has(metrics.KeyTotalReturn) {
		ret := ext.Get(metrics.KeyTotalReturn)
		switch {
		case ret > maxPlausibleReturnPct:
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityHigh,
				Category:       CategoryRealism,
				Description:    fmt.Sprintf("Return of %.1f%% appears unrealistic", ret),
				Recommendation: "Verify the backtest implementation and data sources",
			})
		case ret < minPlausibleReturnPct:
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityMedium,
				Category:       CategoryPoorPerformance,
				Description:    fmt.Sprintf("Significant loss of %.1f%%", ret),
				Recommendation: "Review strategy logic and risk management",
			})
		}
	}

	if ext.Has(metrics.KeySharpeRatio) {
		sharpe := ext.Get(metrics.KeySharpeRatio)
		switch {
		case sharpe > maxPlausibleSharpe:
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityMedium,
				Category:       CategoryRealism,
				Description:    fmt.Sprintf("Sharpe ratio of %.2f appears unrealistic", sharpe),
				Recommendation: "Verify the Sharpe ratio calculation methodology",
			})
		case sharpe < minPlausibleSharpe:
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityLow,
				Category:       CategoryPoorPerformance,
				Description:    fmt.Sprintf("Poor Sharpe ratio of %.2f", sharpe),
				Recommendation: "Improve risk-adjusted returns",
			})
		}
	}

	return issues
}

// checkCapital cross-checks the reported PnL against the reported
// return. Both figures are anchored to the fixed starting capital, so
// a large implied-capital deviation means one of them is fabricated.
func (c *Checker) checkCapital(ext *metrics.Extraction) []contracts.Issue {
	if !ext.Has(metrics.KeyTotalPnL) || !ext.Has(metrics.KeyTotalReturn) {
		return nil
	}
	ret := ext.Get(metrics.KeyTotalReturn)
	if math.Abs(ret) < 0.001 {
		return nil
	}

	implied := math.Abs(ext.Get(metrics.KeyTotalPnL) / (ret / 100))
	diff := math.Abs(implied - c.cfg.StartingCapital)

	description := fmt.Sprintf("Reported PnL and return imply $%.0f starting capital, contest capital is $%.0f",
		implied, c.cfg.StartingCapital)

	switch {
	case diff > c.cfg.CapitalHardLimit:
		return []contracts.Issue{{
			Severity:       contracts.SeverityCritical,
			Category:       CategoryCapital,
			Description:    description,
			Recommendation: "Rerun the backtest with the exact contest starting capital",
		}}
	case diff > c.cfg.CapitalTolerance:
		return []contracts.Issue{{
			Severity:       contracts.SeverityMedium,
			Category:       CategoryCapital,
			Description:    description,
			Recommendation: "Verify PnL and return are computed from the same run",
		}}
	}
	return nil
}
