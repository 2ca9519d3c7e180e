package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msolomos/contest-arbiter/internal/evalconfig"
	"github.com/msolomos/contest-arbiter/pkg/config"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

var (
	// Global flags
	basePath    string
	outputDir   string
	configFile  string
	workers     int
	submissions string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Contest Arbiter - static evaluation pipeline for trading strategy submissions",
	Long: `Contest Arbiter CLI

Evaluates untrusted strategy submissions through a four-stage
elimination pipeline and produces a weighted final ranking.

Stages:
  security      - dangerous calls, file writes, unapproved imports
  compliance    - required files and strategy interface conformance
  integrity     - hardcoded prices, synthetic data, hindsight bias
  rules         - risk limits, trading activity, data constraints

Usage:
  go run ./cmd/arbiter [command]

Examples:
  go run ./cmd/arbiter evaluate --base-path ./submissions
  go run ./cmd/arbiter security --base-path ./submissions
  go run ./cmd/arbiter api
  go run ./cmd/arbiter scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&basePath, "base-path", "", "submissions directory (default $ARBITER_BASE_PATH)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "report output directory (default $ARBITER_OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "evaluation config YAML (default $ARBITER_CONFIG)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent submission workers (default $ARBITER_WORKERS)")
	rootCmd.PersistentFlags().StringVar(&submissions, "submissions", "", "comma-separated submission IDs (default: scan base path)")
}

// loadEnvironment loads the process config, applies CLI flag overrides
// and resolves the evaluation rule set.
func loadEnvironment() (*config.Config, *evalconfig.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	if basePath != "" {
		cfg.Evaluation.BasePath = basePath
	}
	if outputDir != "" {
		cfg.Evaluation.OutputDir = outputDir
	}
	if configFile != "" {
		cfg.Evaluation.ConfigFile = configFile
	}
	if workers > 0 {
		cfg.Evaluation.Workers = workers
	}

	log := logger.New(cfg)

	eval := evalconfig.Default()
	if cfg.Evaluation.ConfigFile != "" {
		eval, err = evalconfig.Load(cfg.Evaluation.ConfigFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load evaluation config: %w", err)
		}
		log.WithField("file", cfg.Evaluation.ConfigFile).Info("Loaded evaluation config")
	}
	if eval.Workers == 0 {
		eval.Workers = cfg.Evaluation.Workers
	}

	return cfg, eval, log, nil
}
