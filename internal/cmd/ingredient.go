package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratecalc/internal/style"
	"ratecalc/pkg/domain"
)

var ingredientCmd = &cobra.Command{
	Use:   "ingredient",
	Short: "Manage known ingredients",
}

var ingredientAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Register raw ingredients",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngredientAdd,
}

var ingredientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known ingredients and whether a recipe produces them",
	Args:  cobra.NoArgs,
	RunE:  runIngredientList,
}

func init() {
	rootCmd.AddCommand(ingredientCmd)
	ingredientCmd.AddCommand(ingredientAddCmd)
	ingredientCmd.AddCommand(ingredientListCmd)
}

func runIngredientAdd(cmd *cobra.Command, args []string) error {
	p := style.NewPrinter(cmd.OutOrStdout())
	for _, name := range args {
		added, err := rt.svc.AddIngredient(cmd.Context(), name)
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(p.Writer(), "%s %s\n", p.Render(style.Success, "added"), name)
		} else {
			fmt.Fprintf(p.Writer(), "%s %s already known\n", p.Render(style.Dim, "skipped"), name)
		}
	}
	return nil
}

func runIngredientList(cmd *cobra.Command, _ []string) error {
	catalog, err := rt.svc.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	p := style.NewPrinter(cmd.OutOrStdout())
	table := style.NewTable(style.Column{Name: "Ingredient"}, style.Column{Name: "Source"})
	for _, ing := range catalog.ListIngredients() {
		source := "raw"
		if _, ok := catalog.Lookup(ing).(domain.Producible); ok {
			source = "recipe"
		}
		table.AddRow(string(ing), source)
	}
	if table.Len() == 0 {
		fmt.Fprintln(p.Writer(), "no ingredients")
		return nil
	}
	fmt.Fprint(p.Writer(), table.Render(p))
	return nil
}
