// Package s1_security implements the first elimination stage: a
// static security audit of every Python source in a submission, plus
// a sweep for executable and oversized artifacts.
package s1_security

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/analyzer"
	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/scan"
	"github.com/msolomos/contest-arbiter/internal/scoring"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Config holds the audit thresholds.
type Config struct {
	// LargeFileBytes flags non-Python files above this size.
	LargeFileBytes int64
}

// DefaultConfig returns the contest audit configuration.
func DefaultConfig() Config {
	return Config{LargeFileBytes: 1 << 20}
}

// Checker runs the security audit for one submission.
type Checker struct {
	cfg      Config
	policy   scoring.Policy
	analyzer *analyzer.Analyzer
	log      *logger.Logger
}

// New creates a security Checker.
func New(cfg Config, log *logger.Logger) *Checker {
	return &Checker{
		cfg:      cfg,
		policy:   scoring.SecurityPolicy(),
		analyzer: analyzer.New(),
		log:      log,
	}
}

// Name returns the stage identifier.
func (c *Checker) Name() string {
	return contracts.StageSecurity
}

// Check audits all Python sources and artifacts of one submission.
func (c *Checker) Check(ctx context.Context, sub contracts.Submission) (*contracts.StageResult, error) {
	pyFiles, err := scan.ListFiles(sub.Path, ".py")
	if err != nil {
		return nil, fmt.Errorf("failed to list python files: %w", err)
	}

	var issues []contracts.Issue
	for _, relPath := range pyFiles {
		fileIssues, err := c.auditFile(ctx, sub.Path, relPath)
		if err != nil {
			return nil, err
		}
		issues = append(issues, fileIssues...)
	}

	artifactIssues, err := c.sweepArtifacts(sub.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep artifacts: %w", err)
	}
	issues = append(issues, artifactIssues...)

	issues = scan.Dedup(issues)
	counts := contracts.CountBySeverity(issues)
	score := c.policy.Score(counts)
	passed := c.policy.Pass(score, counts)

	c.log.WithFields(map[string]interface{}{
		"submission": sub.ID,
		"files":      len(pyFiles),
		"issues":     len(issues),
		"score":      score,
		"passed":     passed,
	}).Info("security audit completed")

	result := contracts.NewStageResult(sub, c.Name(), passed, score, issues)
	result.FilesScanned = len(pyFiles)
	return result, nil
}

func (c *Checker) auditFile(ctx context.Context, basePath, relPath string) ([]contracts.Issue, error) {
	content, readIssue := scan.ReadTextFile(filepath.Join(basePath, relPath), relPath)
	if readIssue != nil {
		return []contracts.Issue{*readIssue}, nil
	}

	issues := scan.Source(content, relPath, catalog.Security())

	structural, err := c.analyzer.AnalyzeSource(ctx, []byte(content), relPath)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", relPath, err)
	}
	issues = append(issues, structural...)
	issues = append(issues, scan.Obfuscation(content, relPath)...)
	return issues, nil
}

// sweepArtifacts walks every non-Python file looking for executables,
// oversized binaries and suspicious data files. The shared bot
// template is excluded.
func (c *Checker) sweepArtifacts(basePath string) ([]contracts.Issue, error) {
	var issues []contracts.Issue

	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == catalog.TemplateDirName {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(basePath, path)
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".py" {
			return nil
		}

		switch {
		case catalog.IsExecutableExtension(ext):
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityCritical,
				Category:       catalog.CategoryExecutable,
				Description:    fmt.Sprintf("Executable file found: %s", relPath),
				FilePath:       relPath,
				Recommendation: "Remove executable files from the submission",
			})
		case catalog.IsSuspiciousExtension(ext):
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityMedium,
				Category:       catalog.CategorySuspiciousFile,
				Description:    fmt.Sprintf("Suspicious file type: %s", relPath),
				FilePath:       relPath,
				Recommendation: "Remove unnecessary artifacts",
			})
		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > c.cfg.LargeFileBytes {
				issues = append(issues, contracts.Issue{
					Severity:       contracts.SeverityHigh,
					Category:       catalog.CategoryLargeFile,
					Description:    fmt.Sprintf("Suspicious large file: %s (%.1f MB)", relPath, float64(info.Size())/(1<<20)),
					FilePath:       relPath,
					Recommendation: "Remove or justify large binary artifacts",
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issues, nil
}
