package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ratecalc/internal/core"
	"ratecalc/internal/style"
	"ratecalc/pkg/domain"
)

var ratesCmd = &cobra.Command{
	Use:   "rates <ingredient>",
	Short: "Compute producers and input rates for a target output rate",
	Long: `Compute what producing <ingredient> at --rate units per second needs.

By default only the direct inputs are shown. --tree expands every input down to
raw resources; --aggregate merges the tree into one row per ingredient.
Producer counts are blank for raw resources.

Examples:
  ratecalc rates Plank --rate 1
  ratecalc rates Tool --rate 0.5 --tree
  ratecalc rates Tool --rate 0.5 --aggregate --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRates,
}

var (
	ratesRate      float64
	ratesAggregate bool
	ratesTree      bool
	ratesJSON      bool
)

func init() {
	rootCmd.AddCommand(ratesCmd)
	ratesCmd.Flags().Float64Var(&ratesRate, "rate", 1, "Target output rate in units per second")
	ratesCmd.Flags().BoolVar(&ratesAggregate, "aggregate", false, "Merge demand per ingredient")
	ratesCmd.Flags().BoolVar(&ratesTree, "tree", false, "Expand demand down to raw resources")
	ratesCmd.Flags().BoolVar(&ratesJSON, "json", false, "Output in JSON format")
	ratesCmd.MarkFlagsMutuallyExclusive("aggregate", "tree")
}

func rateTable() *style.Table {
	return style.NewTable(
		style.Column{Name: "Ingredient"},
		style.Column{Name: "Producers", Align: style.AlignRight},
		style.Column{Name: "Rate/s", Align: style.AlignRight},
	)
}

func runRates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := domain.Ingredient(args[0])
	p := style.NewPrinter(cmd.OutOrStdout())
	table := rateTable()

	switch {
	case ratesAggregate:
		rows, err := rt.svc.AggregateRates(ctx, target, ratesRate)
		if err != nil {
			return err
		}
		if ratesJSON {
			return writeJSON(cmd, rows)
		}
		for _, row := range rows {
			table.AddRow(string(row.Ingredient), formatProducers(row.Producers), formatRate(row.Rate))
		}
	case ratesTree:
		tree, err := rt.svc.ExpandTree(ctx, target, ratesRate)
		if err != nil {
			return err
		}
		if ratesJSON {
			return writeJSON(cmd, tree)
		}
		tree.Walk(func(node *core.DemandNode, depth int) {
			table.AddRow(strings.Repeat("  ", depth)+string(node.Ingredient), formatProducers(node.Producers), formatRate(node.Rate))
		})
	default:
		step, err := rt.svc.RequiredRates(ctx, target, ratesRate)
		if err != nil {
			return err
		}
		if ratesJSON {
			return writeJSON(cmd, step)
		}
		table.AddRow(string(target), formatProducers(step.Producers), formatRate(ratesRate))
		for _, in := range step.Inputs {
			table.AddRow("  "+string(in.Ingredient), "", formatRate(in.Rate))
		}
	}
	fmt.Fprint(p.Writer(), table.Render(p))
	return nil
}
