// Package main is the entry point for the vizt CLI.
package main

import (
	"os"

	"github.com/Shopify/visualization-tools/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
