package main

import (
	"os"

	"github.com/feedkeeper/feedkeeper/src/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
