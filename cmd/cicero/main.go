package main

import (
	"os"

	"github.com/msto63/cicero/cmd/cicero/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
