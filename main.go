package main

import (
	"os"

	"github.com/VictorPerezCardoso/cotes/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
