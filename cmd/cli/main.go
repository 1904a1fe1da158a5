// Package main is the cloudcost CLI entry point
package main

import (
	"os"

	"cloudcost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
