// Package main provides the dbalint CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/dbalint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
