// Package main is the entry point for the gatehouse CLI.
package main

import (
	"os"

	"github.com/gatehouse-io/gatehouse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
