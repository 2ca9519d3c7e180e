package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msolomos/contest-arbiter/internal/api"
	"github.com/msolomos/contest-arbiter/internal/api/handlers"
	"github.com/msolomos/contest-arbiter/internal/results"
	"github.com/msolomos/contest-arbiter/pkg/database"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the results API server",
	Long: `Serves evaluation results over HTTP.

Endpoints:
  GET  /health                      - Health check
  GET  /api/v1/ranking              - Final ranking
  GET  /api/v1/results/{stage}      - Per-stage results
  GET  /api/v1/runs/latest          - Latest archived run (requires database)

Example:
  go run ./cmd/arbiter api
  go run ./cmd/arbiter api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Contest Arbiter API Server ===")

	cfg, _, log, err := loadEnvironment()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// The archive endpoints need a database; file-backed endpoints work
	// without one.
	var repo *results.Repository
	if cfg.HasDatabase() {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo = results.NewRepository(db.Pool)
		log.Info("Connected to database")
	} else {
		log.Warn("DATABASE_URL not set, archive endpoints disabled")
	}

	resultsHandler := handlers.NewResultsHandler(cfg.Evaluation.OutputDir, repo, log)
	router := api.NewRouter(resultsHandler, log)
	server := api.New(cfg, log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/v1/ranking")
	fmt.Println("  GET  /api/v1/results/{stage}")
	fmt.Println("  GET  /api/v1/runs/latest")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
