package s1_security

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/pkg/config"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

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

func findByCategory(issues []contracts.Issue, category string) *contracts.Issue {
	for i := range issues {
		if issues[i].Category == category {
			return &issues[i]
		}
	}
	return nil
}

func TestCheckCleanSubmission(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"your_strategy.py": "import pandas as pd\n\n\nclass Momentum:\n    def generate_signal(self, market, portfolio):\n        return market['close'].mean()\n",
	})

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.Equal(t, 100.0, result.Score)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 1, result.FilesScanned)
	assert.Equal(t, contracts.StageSecurity, result.Stage)
}

func TestCheckExecCallFailsAudit(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"your_strategy.py": "payload = 'print(1)'\nexec(payload)\n",
	})

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Equal(t, 60.0, result.Score)

	// pattern scan and structural analysis both see the call; the
	// finding is reported once
	count := 0
	for _, issue := range result.Issues {
		if issue.Category == catalog.CategoryCodeInjection {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, result.CriticalCount())
}

func TestCheckNetworkAccessScoresDown(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"strategy.py": "import pandas as pd\nresp = requests.get('http://example.com')\n",
	})

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	issue := findByCategory(result.Issues, catalog.CategoryNetworkAccess)
	require.NotNil(t, issue)
	assert.Equal(t, contracts.SeverityHigh, issue.Severity)
	assert.Equal(t, 85.0, result.Score)
	assert.True(t, result.Passed)
}

func TestCheckExecutableArtifact(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"strategy.py": "import math\n",
		"run.sh":      "#!/bin/sh\necho hi\n",
	})

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	issue := findByCategory(result.Issues, catalog.CategoryExecutable)
	require.NotNil(t, issue)
	assert.Equal(t, contracts.SeverityCritical, issue.Severity)
	assert.False(t, result.Passed)
}

func TestCheckLargeFileArtifact(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"strategy.py": "import math\n",
	})
	big := bytes.Repeat([]byte{0x42}, 1<<20+1)
	require.NoError(t, os.WriteFile(filepath.Join(sub.Path, "weights.npy"), big, 0o644))

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	issue := findByCategory(result.Issues, catalog.CategoryLargeFile)
	require.NotNil(t, issue)
	assert.Equal(t, contracts.SeverityHigh, issue.Severity)
}

func TestCheckTemplateDirExcluded(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"strategy.py": "import math\n",
		catalog.TemplateDirName + "/template.py": "exec('anything')\n",
		catalog.TemplateDirName + "/setup.sh":    "#!/bin/sh\n",
	})

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.True(t, result.Passed)
}

func TestCheckSyntaxErrorReportedOnce(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"broken.py": "def broken(:\n    pass\n",
	})

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	issue := findByCategory(result.Issues, catalog.CategorySyntaxError)
	require.NotNil(t, issue)
	assert.Equal(t, contracts.SeverityHigh, issue.Severity)
}

func TestCheckSeverityCountsDerived(t *testing.T) {
	sub := writeSubmission(t, map[string]string{
		"strategy.py": "value = getattr(obj, 'attr')\n",
	})

	result, err := New(DefaultConfig(), testLogger()).Check(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SeverityCounts[contracts.SeverityLow])
	assert.Equal(t, 99.0, result.Score)
	assert.True(t, result.Passed)
}
