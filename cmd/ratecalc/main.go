// ratecalc is the command line for the recipe catalog and rate calculator.
package main

import (
	"os"

	"ratecalc/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
