// Package evalconfig loads optional YAML overrides for the
// evaluation pipeline: checker thresholds, contest rule limits and
// worker count. Absent fields keep their published defaults, and
// unknown fields are rejected so a typo cannot silently relax a rule.
package evalconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/msolomos/contest-arbiter/internal/pipeline"
	"github.com/msolomos/contest-arbiter/internal/s1_security"
	"github.com/msolomos/contest-arbiter/internal/s2_compliance"
	"github.com/msolomos/contest-arbiter/internal/s3_integrity"
	"github.com/msolomos/contest-arbiter/internal/s4_rules"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Config is the full override document.
type Config struct {
	Workers  int             `yaml:"workers"`
	Security SecuritySection `yaml:"security"`
	Rules    RulesSection    `yaml:"rules"`

	// Hash is the SHA-256 of the loaded file, for audit logs.
	Hash string `yaml:"-"`
}

// SecuritySection overrides the security audit thresholds.
type SecuritySection struct {
	LargeFileBytes int64 `yaml:"large_file_bytes"`
}

// RulesSection overrides the contest rule limits.
type RulesSection struct {
	MaxDrawdownPct  float64 `yaml:"max_drawdown_pct"`
	MinTrades       int     `yaml:"min_trades"`
	StartingCapital float64 `yaml:"starting_capital"`
	MaxPositionSize float64 `yaml:"max_position_size"`
	DataStart       string  `yaml:"data_start"`
	DataEnd         string  `yaml:"data_end"`
}

// Default returns an empty override set; every threshold keeps its
// published default.
func Default() *Config {
	return &Config{}
}

// Load reads and validates an override file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	cfg.Hash = hex.EncodeToString(sum[:])
	return &cfg, nil
}

// Validate rejects override values outside their sane ranges.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Security.LargeFileBytes < 0 {
		return fmt.Errorf("security.large_file_bytes must not be negative, got %d", c.Security.LargeFileBytes)
	}
	if dd := c.Rules.MaxDrawdownPct; dd < 0 || dd > 100 {
		return fmt.Errorf("rules.max_drawdown_pct must be within [0, 100], got %g", dd)
	}
	if c.Rules.MinTrades < 0 {
		return fmt.Errorf("rules.min_trades must not be negative, got %d", c.Rules.MinTrades)
	}
	if c.Rules.StartingCapital < 0 {
		return fmt.Errorf("rules.starting_capital must not be negative, got %g", c.Rules.StartingCapital)
	}
	if ps := c.Rules.MaxPositionSize; ps < 0 || ps > 1 {
		return fmt.Errorf("rules.max_position_size must be a fraction within [0, 1], got %g", ps)
	}
	return nil
}

// BuildStages assembles the pipeline stages with these overrides
// applied on top of the defaults.
func (c *Config) BuildStages(log *logger.Logger) []pipeline.StageSpec {
	securityCfg := s1_security.DefaultConfig()
	if c.Security.LargeFileBytes > 0 {
		securityCfg.LargeFileBytes = c.Security.LargeFileBytes
	}

	rulesCfg := s4_rules.DefaultConfig()
	if c.Rules.MaxDrawdownPct > 0 {
		rulesCfg.MaxDrawdownPct = c.Rules.MaxDrawdownPct
	}
	if c.Rules.MinTrades > 0 {
		rulesCfg.MinTrades = c.Rules.MinTrades
	}
	if c.Rules.StartingCapital > 0 {
		rulesCfg.StartingCapital = c.Rules.StartingCapital
	}
	if c.Rules.MaxPositionSize > 0 {
		rulesCfg.MaxPositionSize = c.Rules.MaxPositionSize
	}
	if c.Rules.DataStart != "" {
		rulesCfg.DataStart = c.Rules.DataStart
	}
	if c.Rules.DataEnd != "" {
		rulesCfg.DataEnd = c.Rules.DataEnd
	}

	return []pipeline.StageSpec{
		{
			Checker:   s1_security.New(securityCfg, log),
			Fallback:  pipeline.FailStage,
			SkipScore: pipeline.SkipScoreSecurity,
		},
		{
			Checker:   s2_compliance.New(s2_compliance.DefaultConfig(), log),
			Fallback:  pipeline.AssumePass,
			SkipScore: pipeline.SkipScoreCompliance,
		},
		{
			Checker:   s3_integrity.New(s3_integrity.DefaultConfig(), log),
			Fallback:  pipeline.FailStage,
			SkipScore: pipeline.SkipScoreIntegrity,
		},
		{
			Checker:   s4_rules.New(rulesCfg, log),
			Fallback:  pipeline.AssumePass,
			SkipScore: pipeline.SkipScoreRules,
		},
	}
}
