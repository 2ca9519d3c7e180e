package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msolomos/contest-arbiter/internal/contracts"
)

func TestSecurityCatalog_Matches(t *testing.T) {
	sec := Security()

	tests := []struct {
		name     string
		line     string
		category string
		severity contracts.Severity
	}{
		{"exec call", `exec(user_input)`, CategoryCodeInjection, contracts.SeverityCritical},
		{"eval call", `result = eval(expr)`, CategoryCodeInjection, contracts.SeverityCritical},
		{"os.system", `os.system("rm -rf /")`, CategorySystemAccess, contracts.SeverityCritical},
		{"requests", `requests.get(url)`, CategoryNetworkAccess, contracts.SeverityHigh},
		{"write mode open", `f = open("out.txt", "w")`, CategoryFileWrite, contracts.SeverityMedium},
		{"getattr", `getattr(obj, name)`, CategoryReflection, contracts.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var matched *Rule
			for i := range sec.Rules {
				if sec.Rules[i].Pattern.MatchString(tt.line) {
					matched = &sec.Rules[i]
					break
				}
			}
			if assert.NotNil(t, matched, "expected a rule to match %q", tt.line) {
				assert.Equal(t, tt.category, matched.Category)
				assert.Equal(t, tt.severity, matched.Severity)
			}
		})
	}
}

func TestSecurityCatalog_NoFalsePositives(t *testing.T) {
	sec := Security()

	clean := []string{
		`prices = df["Close"].rolling(20).mean()`,
		`signal = "buy" if fast > slow else "hold"`,
		`executor = None`, // "exec" must not match inside a longer word
	}

	for _, line := range clean {
		for i := range sec.Rules {
			assert.False(t, sec.Rules[i].Pattern.MatchString(line),
				"rule %q matched clean line %q", sec.Rules[i].Pattern, line)
		}
	}
}

func TestImportAllowed(t *testing.T) {
	tests := []struct {
		module string
		want   bool
	}{
		{"numpy", true},
		{"pandas", true},
		{"yfinance", true},
		{"strategy_interface", true},
		{"your_strategy", true},  // contest-common
		{"backtest_runner", true},
		{"paramiko", false},
		{"cryptomining", false},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			assert.Equal(t, tt.want, ImportAllowed(tt.module))
		})
	}
}

func TestIsStrategyImport(t *testing.T) {
	assert.True(t, IsStrategyImport("ultimate_winner"))
	assert.True(t, IsStrategyImport("my_momentum_lib"))
	assert.True(t, IsStrategyImport("ChampionBot"))
	assert.False(t, IsStrategyImport("helpers"))
}

func TestArtifactExtensions(t *testing.T) {
	assert.True(t, IsExecutableExtension(".exe"))
	assert.True(t, IsExecutableExtension(".sh"))
	assert.False(t, IsExecutableExtension(".py"))

	assert.True(t, IsSuspiciousExtension(".bin"))
	assert.False(t, IsSuspiciousExtension(".md"))
}

func TestHardcodedDataCatalog(t *testing.T) {
	hc := HardcodedData()

	match := func(line string) bool {
		for i := range hc.Rules {
			if hc.Rules[i].Pattern.MatchString(line) {
				return true
			}
		}
		return false
	}

	assert.True(t, match(`price = 1567.8`))
	assert.True(t, match(`df['Close'] = 1234.5`))
	assert.False(t, match(`price = df['Close'].iloc[-1]`))
	assert.False(t, match(`rsi_period = 14`))
}

func TestHindsightBiasCatalog(t *testing.T) {
	hb := HindsightBias()

	match := func(line string) bool {
		for i := range hb.Rules {
			if hb.Rules[i].Pattern.MatchString(line) {
				return true
			}
		}
		return false
	}

	assert.True(t, match(`df['future'] = df['Close'].shift(-1)`))
	assert.True(t, match(`# uses lookahead window`))
	assert.False(t, match(`df['sma'] = df['Close'].shift(1)`))
}

func TestTimestampCatalog_CaseSensitive(t *testing.T) {
	ts := TimestampManipulation()

	match := func(line string) bool {
		for i := range ts.Rules {
			if ts.Rules[i].Pattern.MatchString(line) {
				return true
			}
		}
		return false
	}

	assert.True(t, match(`t = datetime(2024, 1, 1, 23:59`))
	assert.True(t, match(`ts = "65:00:00"`))
	assert.False(t, match(`ts = "15:30:00"`))
}
