// Package main is the entry point for the wavecheck CLI.
package main

import (
	"os"

	"github.com/efisim/wavecheck/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
