package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Valid(t *testing.T) {
	tests := []struct {
		severity Severity
		want     bool
	}{
		{SeverityCritical, true},
		{SeverityHigh, true},
		{SeverityMedium, true},
		{SeverityLow, true},
		{Severity("INFO"), false},
		{Severity(""), false},
		{Severity("critical"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.severity.Valid())
		})
	}
}

func TestSeverity_Order(t *testing.T) {
	assert.Less(t, SeverityCritical.Order(), SeverityHigh.Order())
	assert.Less(t, SeverityHigh.Order(), SeverityMedium.Order())
	assert.Less(t, SeverityMedium.Order(), SeverityLow.Order())
}

func TestCountBySeverity(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityCritical, Category: "Code Injection"},
		{Severity: SeverityCritical, Category: "System Access"},
		{Severity: SeverityHigh, Category: "File System Write"},
		{Severity: SeverityLow, Category: "Unapproved Imports"},
	}

	counts := CountBySeverity(issues)

	assert.Equal(t, 2, counts[SeverityCritical])
	assert.Equal(t, 1, counts[SeverityHigh])
	assert.Equal(t, 0, counts[SeverityMedium])
	assert.Equal(t, 1, counts[SeverityLow])
}

func TestCountBySeverity_Empty(t *testing.T) {
	counts := CountBySeverity(nil)

	// All four levels present even with no issues
	assert.Len(t, counts, 4)
	for _, sev := range Severities() {
		assert.Equal(t, 0, counts[sev])
	}
}

func TestHasCritical(t *testing.T) {
	assert.False(t, HasCritical(nil))
	assert.False(t, HasCritical([]Issue{{Severity: SeverityHigh}}))
	assert.True(t, HasCritical([]Issue{
		{Severity: SeverityLow},
		{Severity: SeverityCritical},
	}))
}
