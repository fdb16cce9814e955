package main

import (
	"fmt"
	"os"

	"github.com/spec-kit/resolveiq/internal/cli"
)

// Set by ldflags at build time.
var version = "dev"

func main() {
	if err := cli.NewRootCommand(cli.Options{Out: os.Stdout, Version: version}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
