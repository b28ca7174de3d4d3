package main

import (
	"os"

	"github.com/code-payments/instruction-server/cmd/ledgerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
