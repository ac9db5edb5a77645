// Package main is the entry point for the quizcost CLI.
package main

import (
	"os"

	"quizcost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
