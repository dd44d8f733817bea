package main

import (
	"fmt"
	"os"

	"github.com/hymofs/hymo/cmd/hymo/commands"

	// Import prometheus metrics to register init() functions
	_ "github.com/hymofs/hymo/pkg/metrics/prometheus"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
