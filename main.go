// Package main is the entry point for the sniffd capture daemon.
package main

import (
	"fmt"
	"os"

	"github.com/sniffkit/sniffd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
