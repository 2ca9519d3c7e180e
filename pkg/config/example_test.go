package config_test

import (
	"fmt"

	"github.com/msolomos/contest-arbiter/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Base path: %s\n", cfg.Evaluation.BasePath)
	fmt.Printf("Workers: %d\n", cfg.Evaluation.Workers)
}
