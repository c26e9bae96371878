package main

import (
	"os"

	"github.com/jobsentinel/jobsentinel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
