// Package cmd implements the ratecalc command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ratecalc",
	Short: "Recipe catalog and production rate calculator",
	Long: `ratecalc keeps a catalog of crafting recipes and answers how many
producers and how much input per second a target output rate needs.

Examples:
  ratecalc ingredient add Log
  ratecalc recipe set Plank --craft-time 2 --input Log=2
  ratecalc rates Plank --rate 1 --aggregate`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if cerr := closeRuntime(); err == nil {
		err = cerr
	}
	return err
}
