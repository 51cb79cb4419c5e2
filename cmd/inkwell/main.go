package main

import (
	"os"

	"github.com/inkwell-books/inkwell/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
