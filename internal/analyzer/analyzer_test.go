package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
)

func analyze(t *testing.T, source string) []contracts.Issue {
	t.Helper()
	issues, err := New().AnalyzeSource(context.Background(), []byte(source), "strategy.py")
	require.NoError(t, err)
	return issues
}

func findByCategory(issues []contracts.Issue, category string) *contracts.Issue {
	for i := range issues {
		if issues[i].Category == category {
			return &issues[i]
		}
	}
	return nil
}

func TestAnalyzeDangerousCalls(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		category string
		severity contracts.Severity
	}{
		{
			name:     "exec call",
			source:   "exec('print(1)')\n",
			category: catalog.CategoryCodeInjection,
			severity: contracts.SeverityCritical,
		},
		{
			name:     "eval call",
			source:   "x = eval('1 + 1')\n",
			category: catalog.CategoryCodeInjection,
			severity: contracts.SeverityCritical,
		},
		{
			name:     "compile call",
			source:   "code = compile('pass', '<s>', 'exec')\n",
			category: catalog.CategoryCodeInjection,
			severity: contracts.SeverityCritical,
		},
		{
			name:     "dunder import",
			source:   "mod = __import__('os')\n",
			category: catalog.CategoryCodeInjection,
			severity: contracts.SeverityCritical,
		},
		{
			name:     "subprocess run",
			source:   "import subprocess\nsubprocess.run(['ls'])\n",
			category: catalog.CategorySystemAccess,
			severity: contracts.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := analyze(t, tt.source)
			issue := findByCategory(issues, tt.category)
			require.NotNil(t, issue, "expected %s issue", tt.category)
			assert.Equal(t, tt.severity, issue.Severity)
		})
	}
}

func TestAnalyzeYfinanceInstallException(t *testing.T) {
	source := "import subprocess\nimport sys\nsubprocess.check_call([sys.executable, '-m', 'pip', 'install', 'yfinance'])\n"
	issues := analyze(t, source)

	assert.Nil(t, findByCategory(issues, catalog.CategorySystemAccess))
	issue := findByCategory(issues, catalog.CategoryDependencyMgmt)
	require.NotNil(t, issue)
	assert.Equal(t, contracts.SeverityLow, issue.Severity)
}

func TestAnalyzePipInstallOtherPackage(t *testing.T) {
	source := "import subprocess\nsubprocess.check_call(['pip', 'install', 'requests'])\n"
	issues := analyze(t, source)

	issue := findByCategory(issues, catalog.CategorySystemAccess)
	require.NotNil(t, issue)
	assert.Equal(t, contracts.SeverityCritical, issue.Severity)
}

func TestAnalyzeOpenWriteModes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		severity contracts.Severity
	}{
		{
			name:     "write to report file",
			source:   "f = open('backtest_report.md', 'w')\n",
			severity: contracts.SeverityMedium,
		},
		{
			name:     "write to arbitrary file",
			source:   "f = open('payload.py', 'w')\n",
			severity: contracts.SeverityHigh,
		},
		{
			name:     "append to log",
			source:   "f = open('run.log', 'a')\n",
			severity: contracts.SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := analyze(t, tt.source)
			issue := findByCategory(issues, catalog.CategoryFileWrite)
			require.NotNil(t, issue)
			assert.Equal(t, tt.severity, issue.Severity)
		})
	}
}

func TestAnalyzeOpenReadModeIgnored(t *testing.T) {
	issues := analyze(t, "f = open('data.csv', 'r')\n")
	assert.Nil(t, findByCategory(issues, catalog.CategoryFileWrite))
}

func TestAnalyzeEnvironmentAccess(t *testing.T) {
	for _, source := range []string{
		"import os\nkey = os.environ['API_KEY']\n",
		"import os\nkey = os.getenv('API_KEY')\n",
	} {
		issues := analyze(t, source)
		issue := findByCategory(issues, catalog.CategoryEnvAccess)
		require.NotNil(t, issue, "source: %s", source)
		assert.Equal(t, contracts.SeverityMedium, issue.Severity)
	}
}

func TestAnalyzeImports(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		category string
		want     bool
	}{
		{
			name:   "allowed stdlib import",
			source: "import math\nimport json\n",
			want:   false,
		},
		{
			name:   "allowed data science import",
			source: "import pandas as pd\nimport numpy as np\n",
			want:   false,
		},
		{
			name:   "allowed from import",
			source: "from typing import Dict\n",
			want:   false,
		},
		{
			name:   "contest common module",
			source: "from your_strategy import MyStrategy\n",
			want:   false,
		},
		{
			name:   "relative import skipped",
			source: "from .helpers import util\n",
			want:   false,
		},
		{
			name:     "unknown module",
			source:   "import cryptofeed\n",
			category: catalog.CategoryUnapprovedImport,
			want:     true,
		},
		{
			name:     "strategy collection import",
			source:   "from strategies.momentum import MomentumStrategy\n",
			category: catalog.CategoryStrategyImport,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := analyze(t, tt.source)
			if !tt.want {
				assert.Nil(t, findByCategory(issues, catalog.CategoryUnapprovedImport))
				assert.Nil(t, findByCategory(issues, catalog.CategoryStrategyImport))
				return
			}
			assert.NotNil(t, findByCategory(issues, tt.category))
		})
	}
}

func TestAnalyzeSyntaxError(t *testing.T) {
	issues := analyze(t, "def broken(:\n    pass\n")

	require.Len(t, issues, 1)
	assert.Equal(t, catalog.CategorySyntaxError, issues[0].Category)
	assert.Equal(t, contracts.SeverityHigh, issues[0].Severity)
	assert.Greater(t, issues[0].LineNumber, 0)
}

func TestAnalyzeLineNumbers(t *testing.T) {
	source := "import math\n\nx = 1\neval('x')\n"
	issues := analyze(t, source)

	issue := findByCategory(issues, catalog.CategoryCodeInjection)
	require.NotNil(t, issue)
	assert.Equal(t, 4, issue.LineNumber)
	assert.Equal(t, "eval('x')", issue.CodeSnippet)
}

func TestAnalyzeCleanStrategy(t *testing.T) {
	source := `import pandas as pd
import numpy as np
from typing import Dict


class Momentum:
    def generate_signal(self, market, portfolio):
        returns = market['close'].pct_change()
        return returns.mean()
`
	issues := analyze(t, source)
	assert.Empty(t, issues)
}

func TestStringLiteral(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"hello"`, "hello"},
		{`'world'`, "world"},
		{`"""doc"""`, "doc"},
		{`r"raw\path"`, `raw\path`},
		{`f'value'`, "value"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stringLiteral(tt.raw))
	}
}
