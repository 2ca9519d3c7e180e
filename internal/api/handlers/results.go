// Package handlers implements the evaluation results API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/msolomos/contest-arbiter/internal/contracts"
	"github.com/msolomos/contest-arbiter/internal/report"
	"github.com/msolomos/contest-arbiter/internal/results"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

// stageFileNames maps stage identifiers to their summary files in
// the output directory.
var stageFileNames = map[string]string{
	contracts.StageSecurity:   "security_audit_summary.json",
	contracts.StageCompliance: "strict_compliance_results.json",
	contracts.StageIntegrity:  "data_integrity_results.json",
	contracts.StageRules:      "contest_rules_results.json",
}

// ResultsHandler serves evaluation results from the output directory
// and, when a database is configured, the run archive.
type ResultsHandler struct {
	outputDir string
	repo      *results.Repository
	logger    *logger.Logger
}

// NewResultsHandler creates a results handler. repo may be nil when
// no database is configured.
func NewResultsHandler(outputDir string, repo *results.Repository, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		outputDir: outputDir,
		repo:      repo,
		logger:    log,
	}
}

// GetRanking returns the final evaluation ranking.
// GET /api/v1/ranking
func (h *ResultsHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, report.FinalResultsFile)
}

// GetStageResults returns the summary of one elimination stage.
// GET /api/v1/results/{stage}
func (h *ResultsHandler) GetStageResults(w http.ResponseWriter, r *http.Request) {
	stage := mux.Vars(r)["stage"]
	fileName, ok := stageFileNames[stage]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown stage: "+stage)
		return
	}
	h.serveFile(w, fileName)
}

// GetLatestRun returns the most recent archived run header.
// GET /api/v1/runs/latest
func (h *ResultsHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	run, err := h.repo.GetLatestRun(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest run")
		writeError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// serveFile streams a JSON artifact from the output directory.
func (h *ResultsHandler) serveFile(w http.ResponseWriter, name string) {
	data, err := os.ReadFile(filepath.Join(h.outputDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "no evaluation results available yet")
			return
		}
		h.logger.WithError(err).WithField("file", name).Error("Failed to read result file")
		writeError(w, http.StatusInternalServerError, "failed to read results")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
