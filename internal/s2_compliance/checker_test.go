package s2_compliance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/pkg/config"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

const conformingStrategy = `from typing import Dict
from strategy_interface import BaseStrategy, Signal, register_strategy


class YourStrategy(BaseStrategy):
    def __init__(self, config: Dict, exchange):
        super().__init__(config, exchange)

    def generate_signal(self, market, portfolio) -> Signal:
        return Signal(action="hold", confidence=0.0)


register_strategy(YourStrategy)
`

var templateFiles = map[string]string{
	"your-strategy-template/your_strategy.py": conformingStrategy,
	"your-strategy-template/startup.py":       "import your_strategy\n",
	"your-strategy-template/Dockerfile":       "FROM python:3.11-slim\n",
	"your-strategy-template/requirements.txt": "pandas\nnumpy\n",
	"your-strategy-template/README.md":        "# Strategy\n",
	"reports/backtest_runner.py":              "import pandas\n",
	"reports/backtest_report.md":              "Total Return: 10%\n",
	"trade_logic_explanation.md":              "Momentum crossover.\n",
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func writeSubmission(t *testing.T, files map[string]string) contracts.Submission {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return contracts.Submission{ID: "#01 (Alice)", Participant: "Alice", Path: dir}
}

func overlay(overrides map[string]string) map[string]string {
	files := make(map[string]string, len(templateFiles))
	for k, v := range templateFiles {
		files[k] = v
	}
	for k, v := range overrides {
		files[k] = v
	}
	return files
}

func checkIssueCategories(issues []contracts.Issue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Category]++
	}
	return counts
}

func TestCheckConformingSubmission(t *testing.T) {
	sub := writeSubmission(t, templateFiles)

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.Equal(t, 100.0, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, contracts.StageCompliance, result.Stage)
}

func TestCheckMissingRequiredFiles(t *testing.T) {
	files := overlay(nil)
	delete(files, "reports/backtest_report.md")
	delete(files, "trade_logic_explanation.md")
	sub := writeSubmission(t, files)

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, result.Issues, 2)
	assert.Equal(t, 1, result.SeverityCounts[contracts.SeverityHigh])
	assert.Equal(t, 1, result.SeverityCounts[contracts.SeverityLow])
	// 100 - 10 - 2
	assert.Equal(t, 88.0, result.Score)
	assert.True(t, result.Passed)
}

func TestCheckMissingStrategyFileIsCritical(t *testing.T) {
	files := overlay(nil)
	delete(files, "your-strategy-template/your_strategy.py")
	sub := writeSubmission(t, files)

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, contracts.SeverityCritical, result.Issues[0].Severity)
	assert.Equal(t, CategoryRequiredFiles, result.Issues[0].Category)
	assert.False(t, result.Passed)
}

func TestCheckNoInheritance(t *testing.T) {
	sub := writeSubmission(t, overlay(map[string]string{
		"your-strategy-template/your_strategy.py": `from typing import Dict
from strategy_interface import Signal, register_strategy


class YourStrategy:
    def __init__(self, config: Dict, exchange):
        pass

    def generate_signal(self, market, portfolio) -> Signal:
        return Signal(action="hold", confidence=0.0)


register_strategy(YourStrategy)
`,
	}))

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	categories := checkIssueCategories(result.Issues)
	assert.Equal(t, 1, categories[CategoryInterface])
	assert.Equal(t, 1, result.SeverityCounts[contracts.SeverityCritical])
	assert.False(t, result.Passed)
}

func TestCheckWrongSignalSignature(t *testing.T) {
	sub := writeSubmission(t, overlay(map[string]string{
		"your-strategy-template/your_strategy.py": `from typing import Dict
from strategy_interface import BaseStrategy, Signal, register_strategy


class YourStrategy(BaseStrategy):
    def __init__(self, config: Dict, exchange):
        pass

    def generate_signal(self, data) -> Signal:
        return Signal(action="hold", confidence=0.0)


register_strategy(YourStrategy)
`,
	}))

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, contracts.SeverityHigh, result.Issues[0].Severity)
	assert.Contains(t, result.Issues[0].Description, "expected (self, market, portfolio)")
	assert.Equal(t, 90.0, result.Score)
	assert.True(t, result.Passed)
}

func TestCheckMissingReturnAnnotation(t *testing.T) {
	sub := writeSubmission(t, overlay(map[string]string{
		"your-strategy-template/your_strategy.py": `from typing import Dict
from strategy_interface import BaseStrategy, Signal, register_strategy


class YourStrategy(BaseStrategy):
    def __init__(self, config: Dict, exchange):
        pass

    def generate_signal(self, market, portfolio):
        return Signal(action="hold", confidence=0.0)


register_strategy(YourStrategy)
`,
	}))

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, contracts.SeverityMedium, result.Issues[0].Severity)
	assert.Equal(t, 95.0, result.Score)
	assert.True(t, result.Passed)
}

func TestCheckMissingRegistration(t *testing.T) {
	sub := writeSubmission(t, overlay(map[string]string{
		"your-strategy-template/your_strategy.py": `from typing import Dict
from strategy_interface import BaseStrategy, Signal


class YourStrategy(BaseStrategy):
    def __init__(self, config: Dict, exchange):
        pass

    def generate_signal(self, market, portfolio) -> Signal:
        return Signal(action="hold", confidence=0.0)
`,
	}))

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	categories := checkIssueCategories(result.Issues)
	assert.Equal(t, 1, categories[CategoryRegistration])
	assert.Equal(t, 90.0, result.Score)
}

func TestCheckSyntaxErrorInStrategy(t *testing.T) {
	sub := writeSubmission(t, overlay(map[string]string{
		"your-strategy-template/your_strategy.py": "class Broken(\n",
	}))

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, contracts.SeverityHigh, result.Issues[0].Severity)
	assert.Contains(t, result.Issues[0].Description, "Syntax error")
	assert.Equal(t, 90.0, result.Score)
}

func TestInspectConstructorPattern(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{"exact signature", "def __init__(self, config: Dict, exchange):\n    pass\n", true},
		{"lowercase dict", "def __init__(self, config: dict, exchange=None):\n    pass\n", true},
		{"multiline", "def __init__(\n    self,\n    config: Dict,\n    exchange,\n):\n    pass\n", true},
		{"missing exchange", "def __init__(self, config: Dict):\n    pass\n", false},
		{"untyped config", "def __init__(self, config, exchange):\n    pass\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, constructorPattern.MatchString(tt.source))
		})
	}
}
