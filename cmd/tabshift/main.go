package main

import (
	"fmt"
	"os"

	"github.com/kobzarvs/tabshift/internal/app"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if err := app.New(args).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tabshift:", err)
		os.Exit(1)
	}
}
