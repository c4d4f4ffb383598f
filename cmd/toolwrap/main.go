// Package main is the entry point for the toolwrap CLI.
package main

import (
	"os"

	"github.com/runger/toolwrap/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.PrintError(os.Stderr, err)
		os.Exit(cmd.ExitCode(err))
	}
}
