package logger_test

import (
	"errors"

	"github.com/msolomos/contest-arbiter/pkg/config"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Evaluation started")
	log.Warn("Submission has no README")
	log.Error("Failed to read report")

	log.Infof("Evaluating %s", "#01 (Alice)")
	log.Warnf("Fallback applied for %d submissions", 2)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	subLog := log.WithField("submission", "#01 (Alice)")
	subLog.Info("Security audit passed")

	stageLog := log.WithFields(map[string]interface{}{
		"stage":     "contest_rules",
		"score":     85.0,
		"survivors": 4,
	})
	stageLog.Info("Stage completed")
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	err := errors.New("report file missing")
	log.WithError(err).Error("Metric extraction failed")

	log.WithError(err).
		WithFields(map[string]interface{}{
			"submission": "#03 (Carol)",
			"stage":      "contest_rules",
		}).
		Error("Fallback policy applied")
}
