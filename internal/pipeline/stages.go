package pipeline

import (
	"github.com/msolomos/contest-arbiter/internal/s1_security"
	"github.com/msolomos/contest-arbiter/internal/s2_compliance"
	"github.com/msolomos/contest-arbiter/internal/s3_integrity"
	"github.com/msolomos/contest-arbiter/internal/s4_rules"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Skip scores recorded when the operator elects to skip a stage. The
// later the stage, the less credit a skip earns.
const (
	SkipScoreSecurity   = 90.0
	SkipScoreCompliance = 85.0
	SkipScoreIntegrity  = 80.0
	SkipScoreRules      = 75.0
)

// DefaultStages assembles the contest pipeline with default checker
// configurations. The security and integrity stages fail closed on
// tooling errors; compliance and rules fail open because their
// verdicts can be reproduced manually from the reports.
func DefaultStages(log *logger.Logger) []StageSpec {
	return []StageSpec{
		{
			Checker:   s1_security.New(s1_security.DefaultConfig(), log),
			Fallback:  FailStage,
			SkipScore: SkipScoreSecurity,
		},
		{
			Checker:   s2_compliance.New(s2_compliance.DefaultConfig(), log),
			Fallback:  AssumePass,
			SkipScore: SkipScoreCompliance,
		},
		{
			Checker:   s3_integrity.New(s3_integrity.DefaultConfig(), log),
			Fallback:  FailStage,
			SkipScore: SkipScoreIntegrity,
		},
		{
			Checker:   s4_rules.New(s4_rules.DefaultConfig(), log),
			Fallback:  AssumePass,
			SkipScore: SkipScoreRules,
		},
	}
}
