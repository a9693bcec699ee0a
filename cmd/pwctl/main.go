package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/h19overflow/PipeWeave/internal/cli/commands"
	"github.com/h19overflow/PipeWeave/internal/cli/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		if strings.Contains(err.Error(), "unknown command") {
			ui.PrintError("%s", err.Error())
			fmt.Println("\nRun 'pwctl --help' for usage.")
		}
		os.Exit(1)
	}
}
