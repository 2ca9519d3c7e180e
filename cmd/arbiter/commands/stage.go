package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/pipeline"
	"github.com/msolomos/contest-arbiter/internal/report"
)

// Single-stage commands run one checker over all submissions without
// elimination, for inspecting a stage in isolation.
var (
	securityCmd = &cobra.Command{
		Use:   "security",
		Short: "Run only the security audit",
		RunE:  stageRunner(contracts.StageSecurity),
	}

	complianceCmd = &cobra.Command{
		Use:   "compliance",
		Short: "Run only the strict compliance check",
		RunE:  stageRunner(contracts.StageCompliance),
	}

	integrityCmd = &cobra.Command{
		Use:   "integrity",
		Short: "Run only the data integrity check",
		RunE:  stageRunner(contracts.StageIntegrity),
	}

	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "Run only the contest rules check",
		RunE:  stageRunner(contracts.StageRules),
	}
)

func init() {
	rootCmd.AddCommand(securityCmd)
	rootCmd.AddCommand(complianceCmd)
	rootCmd.AddCommand(integrityCmd)
	rootCmd.AddCommand(rulesCmd)
}

// stageRunner builds a RunE that executes a single named stage.
func stageRunner(stage string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, eval, log, err := loadEnvironment()
		if err != nil {
			return err
		}

		// Only the security stage scans the whole base path; later
		// stages normally run on an explicit survivor list.
		if submissions == "" && stage != contracts.StageSecurity {
			return fmt.Errorf("--submissions is required for %s", stage)
		}
		subs, err := selectSubmissions(cfg.Evaluation.BasePath)
		if err != nil {
			return err
		}

		spec, err := findStage(eval.BuildStages(log), stage)
		if err != nil {
			return err
		}

		PrintStageHeader(stage, len(subs))

		runner := pipeline.NewRunner(eval.Workers, log)
		results, err := runner.RunStage(cmd.Context(), spec.Checker, subs, spec.Fallback)
		if err != nil {
			return fmt.Errorf("run %s: %w", stage, err)
		}

		PrintStageResults(results)

		writer := report.NewWriter(cfg.Evaluation.OutputDir, log)
		if err := writer.WriteStage(stage, results); err != nil {
			return fmt.Errorf("write %s report: %w", stage, err)
		}

		fmt.Printf("Reports written to %s\n", writer.OutputDir())
		return nil
	}
}

func findStage(stages []pipeline.StageSpec, name string) (pipeline.StageSpec, error) {
	for _, spec := range stages {
		if spec.Checker.Name() == name {
			return spec, nil
		}
	}
	return pipeline.StageSpec{}, fmt.Errorf("unknown stage: %s", name)
}
