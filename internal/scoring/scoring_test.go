package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/metrics"
)

func counts(critical, high, medium, low int) map[contracts.Severity]int {
	return map[contracts.Severity]int{
		contracts.SeverityCritical: critical,
		contracts.SeverityHigh:     high,
		contracts.SeverityMedium:   medium,
		contracts.SeverityLow:      low,
	}
}

func TestPolicyScore(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		counts map[contracts.Severity]int
		want   float64
	}{
		{"security clean", SecurityPolicy(), counts(0, 0, 0, 0), 100},
		{"security one critical", SecurityPolicy(), counts(1, 0, 0, 0), 60},
		{"security mixed", SecurityPolicy(), counts(0, 2, 3, 5), 50},
		{"security floor at zero", SecurityPolicy(), counts(3, 0, 0, 0), 0},
		{"compliance one high", CompliancePolicy(), counts(0, 1, 0, 0), 90},
		{"integrity mediums", IntegrityPolicy(), counts(0, 0, 2, 1), 81},
		{"rules one critical", RulesPolicy(), counts(1, 0, 0, 0), 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.policy.Score(tt.counts), 0.001)
		})
	}
}

func TestPolicyPass(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		score  float64
		counts map[contracts.Severity]int
		want   bool
	}{
		{"clean passes", SecurityPolicy(), 100, counts(0, 0, 0, 0), true},
		{"critical vetoes even above threshold", RulesPolicy(), 70, counts(1, 0, 0, 0), false},
		{"below threshold fails", SecurityPolicy(), 59, counts(0, 0, 0, 0), false},
		{"at threshold passes", SecurityPolicy(), 60, counts(0, 0, 0, 0), true},
		{"many highs allowed without cap", SecurityPolicy(), 60, counts(0, 5, 0, 0), true},
		{"rules two highs pass", RulesPolicy(), 70, counts(0, 2, 0, 0), true},
		{"rules three highs fail", RulesPolicy(), 70, counts(0, 3, 0, 0), false},
		{"compliance threshold is eighty", CompliancePolicy(), 79, counts(0, 0, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Pass(tt.score, tt.counts))
		})
	}
}

func extraction(values map[string]float64) *metrics.Extraction {
	return &metrics.Extraction{Values: values, Sources: map[string]string{}}
}

func TestPerformanceBonus(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]float64
		want   float64
	}{
		{"no metrics", map[string]float64{}, 0},
		{
			"excellent everything",
			map[string]float64{
				metrics.KeyTotalReturn: 30,
				metrics.KeyMaxDrawdown: 5,
				metrics.KeySharpeRatio: 2.5,
			},
			20,
		},
		{
			"good tier",
			map[string]float64{
				metrics.KeyTotalReturn: 15,
				metrics.KeyMaxDrawdown: 15,
				metrics.KeySharpeRatio: 1.5,
			},
			9,
		},
		{
			"weak results earn nothing",
			map[string]float64{
				metrics.KeyTotalReturn: 5,
				metrics.KeyMaxDrawdown: 30,
				metrics.KeySharpeRatio: 0.5,
			},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PerformanceBonus(extraction(tt.values)), 0.001)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5))
	assert.Equal(t, 100.0, Clamp(104))
	assert.Equal(t, 72.5, Clamp(72.5))
}

func TestOverall(t *testing.T) {
	scores := map[string]float64{
		contracts.StageSecurity:   100,
		contracts.StageCompliance: 80,
		contracts.StageIntegrity:  90,
		contracts.StageRules:      70,
	}
	// 100*.30 + 80*.25 + 90*.25 + 70*.20
	assert.InDelta(t, 86.5, Overall(scores), 0.001)
}

func TestOverallMissingStage(t *testing.T) {
	scores := map[string]float64{contracts.StageSecurity: 100}
	assert.InDelta(t, 30.0, Overall(scores), 0.001)
}
