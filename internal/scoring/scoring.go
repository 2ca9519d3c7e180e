// Package scoring turns issue counts into stage scores and pass
// verdicts. Each stage carries its own severity weight table and pass
// policy; the final ranking blends the four stage scores with fixed
// weights.
package scoring

import (
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/metrics"
)

// Weights are the per-severity point deductions from a 100 base.
type Weights struct {
	Critical float64
	High     float64
	Medium   float64
	Low      float64
}

// Policy is a stage's scoring and pass rule. A single CRITICAL issue
// always fails the stage regardless of score. HighTolerance caps the
// number of HIGH issues a passing submission may carry; -1 means no
// cap.
type Policy struct {
	Weights       Weights
	PassThreshold float64
	HighTolerance int
}

// Score deducts weighted points per issue from a 100 base, floored
// at zero.
func (p Policy) Score(counts map[contracts.Severity]int) float64 {
	score := 100.0
	score -= float64(counts[contracts.SeverityCritical]) * p.Weights.Critical
	score -= float64(counts[contracts.SeverityHigh]) * p.Weights.High
	score -= float64(counts[contracts.SeverityMedium]) * p.Weights.Medium
	score -= float64(counts[contracts.SeverityLow]) * p.Weights.Low
	return Clamp(score)
}

// Pass applies the stage verdict to a score and its issue counts.
func (p Policy) Pass(score float64, counts map[contracts.Severity]int) bool {
	if counts[contracts.SeverityCritical] > 0 {
		return false
	}
	if p.HighTolerance >= 0 && counts[contracts.SeverityHigh] > p.HighTolerance {
		return false
	}
	return score >= p.PassThreshold
}

// Clamp bounds a score to [0, 100].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SecurityPolicy scores the security audit stage.
func SecurityPolicy() Policy {
	return Policy{
		Weights:       Weights{Critical: 40, High: 15, Medium: 5, Low: 1},
		PassThreshold: 60,
		HighTolerance: -1,
	}
}

// CompliancePolicy scores the strict interface compliance stage.
func CompliancePolicy() Policy {
	return Policy{
		Weights:       Weights{Critical: 25, High: 10, Medium: 5, Low: 2},
		PassThreshold: 80,
		HighTolerance: -1,
	}
}

// IntegrityPolicy scores the data integrity stage.
func IntegrityPolicy() Policy {
	return Policy{
		Weights:       Weights{Critical: 30, High: 15, Medium: 8, Low: 3},
		PassThreshold: 70,
		HighTolerance: -1,
	}
}

// RulesPolicy scores the contest rules stage. Unlike the earlier
// stages it tolerates at most two HIGH findings.
func RulesPolicy() Policy {
	return Policy{
		Weights:       Weights{Critical: 30, High: 15, Medium: 8, Low: 3},
		PassThreshold: 70,
		HighTolerance: 2,
	}
}

// PerformanceBonus rewards strong backtest figures in the contest
// rules stage. The caller clamps the combined score.
func PerformanceBonus(ext *metrics.Extraction) float64 {
	bonus := 0.0

	if ext.Has(metrics.KeyTotalReturn) {
		switch ret := ext.Get(metrics.KeyTotalReturn); {
		case ret > 25:
			bonus += 10
		case ret > 10:
			bonus += 5
		}
	}
	if ext.Has(metrics.KeyMaxDrawdown) {
		switch dd := ext.Get(metrics.KeyMaxDrawdown); {
		case dd < 10:
			bonus += 5
		case dd < 20:
			bonus += 2
		}
	}
	if ext.Has(metrics.KeySharpeRatio) {
		switch sharpe := ext.Get(metrics.KeySharpeRatio); {
		case sharpe > 2:
			bonus += 5
		case sharpe > 1:
			bonus += 2
		}
	}

	return bonus
}

// StageWeights are the final-ranking blend weights per stage.
func StageWeights() map[string]float64 {
	return map[string]float64{
		contracts.StageSecurity:   0.30,
		contracts.StageCompliance: 0.25,
		contracts.StageIntegrity:  0.25,
		contracts.StageRules:      0.20,
	}
}

// Overall blends per-stage scores into the final ranking score.
// Missing stages contribute zero.
func Overall(stageScores map[string]float64) float64 {
	total := 0.0
	for stage, weight := range StageWeights() {
		total += stageScores[stage] * weight
	}
	return Clamp(total)
}
