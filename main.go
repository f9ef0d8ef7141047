package main

import (
	"os"

	"github.com/hivefile/hivefile/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
