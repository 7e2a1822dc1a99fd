package main

import (
	"os"

	"stratlab/cmd/stratlab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
