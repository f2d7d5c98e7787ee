package main

import (
	"os"

	"github.com/twinforge/aasx-etl/cmd/etl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
