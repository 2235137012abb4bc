package main

import (
	"os"

	"github.com/arlo-ai/arlo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
