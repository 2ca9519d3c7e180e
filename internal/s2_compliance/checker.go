// Package s2_compliance implements the second elimination stage. It
// verifies that a submission keeps the required repository layout and
// that its strategy entry file implements the contest interface
// contract exactly.
package s2_compliance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/scan"
	"github.com/msolomos/contest-arbiter/internal/scoring"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Issue categories reported by this stage.
const (
	CategoryRequiredFiles = "Required Files"
	CategoryInterface     = "Strategy Interface"
	CategorySignal        = "Signal Contract"
	CategoryRegistration  = "Strategy Registration"
	CategoryConstructor   = "Constructor Signature"
)

// StrategyEntryFile is the submission file carrying the strategy
// implementation under inspection.
const StrategyEntryFile = "your-strategy-template/your_strategy.py"

// Config holds the compliance contract.
type Config struct {
	// RequiredFiles maps a relative path to the severity of its
	// absence.
	RequiredFiles map[string]string
}

// DefaultConfig returns the contest file contract.
func DefaultConfig() Config {
	return Config{RequiredFiles: catalog.RequiredFiles}
}

// Checker runs the compliance verification for one submission.
type Checker struct {
	cfg    Config
	policy scoring.Policy
	log    *logger.Logger
}

// New creates a compliance Checker.
func New(cfg Config, log *logger.Logger) *Checker {
	return &Checker{cfg: cfg, policy: scoring.CompliancePolicy(), log: log}
}

// Name returns the stage identifier.
func (c *Checker) Name() string {
	return contracts.StageCompliance
}

// Check verifies the file contract and the strategy interface.
func (c *Checker) Check(ctx context.Context, sub contracts.Submission) (*contracts.StageResult, error) {
	issues := c.checkRequiredFiles(sub.Path)

	interfaceIssues, err := c.checkInterface(ctx, sub.Path)
	if err != nil {
		return nil, err
	}
	issues = append(issues, interfaceIssues...)

	counts := contracts.CountBySeverity(issues)
	score := c.policy.Score(counts)
	passed := c.policy.Pass(score, counts)

	c.log.WithFields(map[string]interface{}{
		"submission": sub.ID,
		"issues":     len(issues),
		"score":      score,
		"passed":     passed,
	}).Info("compliance check completed")

	return contracts.NewStageResult(sub, c.Name(), passed, score, issues), nil
}

func (c *Checker) checkRequiredFiles(basePath string) []contracts.Issue {
	paths := make([]string, 0, len(c.cfg.RequiredFiles))
	for path := range c.cfg.RequiredFiles {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var issues []contracts.Issue
	for _, relPath := range paths {
		if _, err := os.Stat(filepath.Join(basePath, relPath)); err == nil {
			continue
		}
		issues = append(issues, contracts.Issue{
			Severity:       contracts.Severity(c.cfg.RequiredFiles[relPath]),
			Category:       CategoryRequiredFiles,
			Description:    fmt.Sprintf("Missing required file: %s", relPath),
			FilePath:       relPath,
			Recommendation: "Restore the template file structure",
		})
	}
	return issues
}

// checkInterface inspects the strategy entry file. When the file is
// missing the required-files check already carries the CRITICAL, so
// the interface checks are skipped rather than piled on.
func (c *Checker) checkInterface(ctx context.Context, basePath string) ([]contracts.Issue, error) {
	content, readIssue := scan.ReadTextFile(filepath.Join(basePath, StrategyEntryFile), StrategyEntryFile)
	if readIssue != nil {
		return nil, nil
	}

	ins, err := inspectStrategy(ctx, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", StrategyEntryFile, err)
	}

	if ins.parseFailed {
		return []contracts.Issue{{
			Severity:       contracts.SeverityHigh,
			Category:       CategoryInterface,
			Description:    "Syntax error prevents interface verification",
			FilePath:       StrategyEntryFile,
			Recommendation: "Fix the syntax errors",
		}}, nil
	}

	var issues []contracts.Issue
	add := func(sev contracts.Severity, category, description, recommendation string) {
		issues = append(issues, contracts.Issue{
			Severity:       sev,
			Category:       category,
			Description:    description,
			FilePath:       StrategyEntryFile,
			Recommendation: recommendation,
		})
	}

	if !ins.importsStrategyInterface {
		add(contracts.SeverityCritical, CategoryInterface,
			"Strategy file does not import from strategy_interface",
			"Import BaseStrategy and Signal from strategy_interface")
	}
	if !ins.inheritsBaseStrategy {
		add(contracts.SeverityCritical, CategoryInterface,
			"Strategy class does not inherit from BaseStrategy",
			"Declare the strategy class as class YourStrategy(BaseStrategy)")
	}

	switch {
	case !ins.hasGenerateSignal:
		add(contracts.SeverityCritical, CategoryInterface,
			"Required method generate_signal is not defined",
			"Implement generate_signal(self, market, portfolio) -> Signal")
	case !ins.signalSignatureOK():
		add(contracts.SeverityHigh, CategoryInterface,
			fmt.Sprintf("generate_signal has signature %v, expected (self, market, portfolio)", ins.generateSignalParams),
			"Match the exact parameter names of the interface")
	case !ins.returnsSignal:
		add(contracts.SeverityMedium, CategoryInterface,
			"generate_signal is missing the -> Signal return annotation",
			"Annotate the return type as Signal")
	}

	if !ins.importsSignal || !ins.usesSignal {
		add(contracts.SeverityHigh, CategorySignal,
			"Strategy does not construct Signal objects",
			"Return Signal instances from generate_signal")
	}
	if !ins.callsRegisterStrategy {
		add(contracts.SeverityHigh, CategoryRegistration,
			"register_strategy call not found",
			"Register the strategy class with register_strategy")
	}
	if !ins.constructorOK {
		add(contracts.SeverityMedium, CategoryConstructor,
			"Constructor does not match __init__(self, config: Dict, exchange)",
			"Accept the config dict and exchange handle in the constructor")
	}

	return issues, nil
}
