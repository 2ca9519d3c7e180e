package main

import (
	"os"

	"github.com/msolomos/contest-arbiter/cmd/arbiter/commands"
)

// main is the entry point for the arbiter CLI: go run ./cmd/arbiter [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
