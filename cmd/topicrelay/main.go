// Package main is the entry point for the topicrelay CLI.
package main

import (
	"os"

	"github.com/topicrelay/topicrelay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
