// Package main provides the entry point for the unidocs CLI.
package main

import (
	"os"

	"github.com/unidocs/unidocs/cmd/unidocs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
