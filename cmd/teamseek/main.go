// Package main is the entry point for the teamseek CLI.
package main

import (
	"os"

	"github.com/runger/teamseek/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
