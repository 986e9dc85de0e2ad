package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ratecalc/internal/core"
	"ratecalc/internal/style"
	"ratecalc/pkg/domain"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Author and inspect recipes",
}

var recipeSetCmd = &cobra.Command{
	Use:   "set <output>",
	Short: "Create or replace the recipe for an ingredient",
	Long: `Build a recipe for <output> and commit it to the catalog.

Inputs are given as NAME=COUNT; COUNT defaults to 1. The recipe is rejected
when an input is repeated, a count is below 1, or an input already depends on
<output>.

With --edit the committed recipe is loaded first: only the flags given change
it, --input updates or adds a slot and --drop removes one.

Examples:
  ratecalc recipe set Plank --craft-time 2 --input Log=2
  ratecalc recipe set Tool --output-count 2 --input Plank --input Stone=3
  ratecalc recipe set Tool --edit --drop Stone --input Iron=1`,
	Args: cobra.ExactArgs(1),
	RunE: runRecipeSet,
}

var recipeRmCmd = &cobra.Command{
	Use:   "rm <output>",
	Short: "Remove a recipe, making its output a raw resource",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipeRm,
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List committed recipes",
	Args:  cobra.NoArgs,
	RunE:  runRecipeList,
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <output>",
	Short: "Show the recipe for an ingredient",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipeShow,
}

var (
	recipeCraftTime   float64
	recipeOutputCount float64
	recipeInputs      []string
	recipeDrops       []string
	recipeEdit        bool
	recipeShowJSON    bool
)

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.AddCommand(recipeSetCmd)
	recipeCmd.AddCommand(recipeRmCmd)
	recipeCmd.AddCommand(recipeListCmd)
	recipeCmd.AddCommand(recipeShowCmd)

	recipeSetCmd.Flags().Float64Var(&recipeCraftTime, "craft-time", 1, "Seconds per craft")
	recipeSetCmd.Flags().Float64Var(&recipeOutputCount, "output-count", 1, "Units produced per craft")
	recipeSetCmd.Flags().StringArrayVar(&recipeInputs, "input", nil, "Input as NAME=COUNT (repeatable)")
	recipeSetCmd.Flags().StringArrayVar(&recipeDrops, "drop", nil, "Input to remove when editing (repeatable)")
	recipeSetCmd.Flags().BoolVar(&recipeEdit, "edit", false, "Start from the committed recipe")
	recipeShowCmd.Flags().BoolVar(&recipeShowJSON, "json", false, "Output in JSON format")
}

func parseInput(arg string) (domain.Ingredient, float64, error) {
	name, count, found := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", 0, fmt.Errorf("input %q: %w", arg, domain.ErrEmptyIngredient)
	}
	if !found {
		return domain.Ingredient(name), 1, nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(count), 64)
	if err != nil {
		return "", 0, fmt.Errorf("input %q: invalid count: %w", arg, err)
	}
	return domain.Ingredient(name), n, nil
}

func findSlot(b *core.RecipeBuilder, ing domain.Ingredient) int {
	for i, in := range b.Inputs() {
		if in.Ingredient == ing {
			return i
		}
	}
	return -1
}

// draftRecipe turns the set flags into a builder draft for output.
func draftRecipe(cmd *cobra.Command, view core.CatalogView, output domain.Ingredient) (*core.RecipeBuilder, error) {
	b := core.NewRecipeBuilder()
	if recipeEdit {
		b.Edit(view, output)
	} else {
		if len(recipeDrops) > 0 {
			return nil, fmt.Errorf("--drop requires --edit")
		}
		b.SetOutput(output)
	}
	flags := cmd.Flags()
	if !recipeEdit || flags.Changed("craft-time") {
		b.SetCraftTime(recipeCraftTime)
	}
	if !recipeEdit || flags.Changed("output-count") {
		b.SetOutputCount(recipeOutputCount)
	}
	for _, name := range recipeDrops {
		slot := findSlot(b, domain.Ingredient(name))
		if slot < 0 {
			return nil, fmt.Errorf("%s is not an input of %s", name, output)
		}
		if err := b.RemoveInput(slot); err != nil {
			return nil, err
		}
	}
	for _, arg := range recipeInputs {
		ing, count, err := parseInput(arg)
		if err != nil {
			return nil, err
		}
		slot := -1
		if recipeEdit {
			slot = findSlot(b, ing)
		}
		if slot < 0 {
			slot = b.AddBlankInput()
			if err := b.SetInput(slot, ing); err != nil {
				return nil, err
			}
		}
		if err := b.SetInputCount(slot, count); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func runRecipeSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	output := domain.Ingredient(strings.TrimSpace(args[0]))
	catalog, err := rt.svc.Catalog(ctx)
	if err != nil {
		return err
	}
	b, err := draftRecipe(cmd, catalog, output)
	if err != nil {
		return err
	}
	_, recipe := b.Draft()
	if _, err := rt.svc.CommitRecipe(ctx, b); err != nil {
		if be, ok := domain.AsBuildError(err); ok {
			return fmt.Errorf("recipe %s rejected by %s rule: %w", output, be.Rule, be)
		}
		return err
	}
	p := style.NewPrinter(cmd.OutOrStdout())
	fmt.Fprintf(p.Writer(), "%s %s\n", p.Render(style.Success, "committed"), formatRecipe(output, recipe))
	return nil
}

func runRecipeRm(cmd *cobra.Command, args []string) error {
	output := domain.Ingredient(args[0])
	if _, err := rt.svc.RemoveRecipe(cmd.Context(), output); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed recipe for %s\n", output)
	return nil
}

func runRecipeList(cmd *cobra.Command, _ []string) error {
	catalog, err := rt.svc.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	p := style.NewPrinter(cmd.OutOrStdout())
	table := style.NewTable(
		style.Column{Name: "Output"},
		style.Column{Name: "Makes", Align: style.AlignRight},
		style.Column{Name: "Time/s", Align: style.AlignRight},
		style.Column{Name: "Inputs"},
	)
	for _, output := range catalog.SortedRecipeOutputs() {
		src, ok := catalog.Lookup(output).(domain.Producible)
		if !ok {
			continue
		}
		table.AddRow(string(output), formatCount(src.Recipe.OutputNum), formatCount(src.Recipe.CraftTime), formatInputs(src.Recipe.Inputs))
	}
	if table.Len() == 0 {
		fmt.Fprintln(p.Writer(), "no recipes")
		return nil
	}
	fmt.Fprint(p.Writer(), table.Render(p))
	return nil
}

func runRecipeShow(cmd *cobra.Command, args []string) error {
	catalog, err := rt.svc.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	output := domain.Ingredient(args[0])
	src, ok := catalog.Lookup(output).(domain.Producible)
	if !ok {
		return core.ErrNotFound{Ingredient: output}
	}
	if recipeShowJSON {
		return writeJSON(cmd, src.Recipe)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatRecipe(output, src.Recipe))
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
