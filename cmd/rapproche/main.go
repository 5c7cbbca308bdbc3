package main

import (
	"os"

	"github.com/rapproche-dev/rapproche/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
