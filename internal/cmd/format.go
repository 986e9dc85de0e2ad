package cmd

import (
	"strconv"
	"strings"

	"ratecalc/pkg/domain"
)

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatRate renders a rate the way rate tables show it: two decimals.
func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatProducers leaves the cell blank for raw resources.
func formatProducers(v float64) string {
	if v <= 0 {
		return ""
	}
	return formatRate(v)
}

func formatInputs(inputs []domain.IngredientWithCount) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = formatCount(in.Count) + " " + string(in.Ingredient)
	}
	return strings.Join(parts, " + ")
}

// formatRecipe renders "1 Plank <- 2 Log (2s)".
func formatRecipe(output domain.Ingredient, recipe domain.Recipe) string {
	s := formatCount(recipe.OutputNum) + " " + string(output)
	if len(recipe.Inputs) > 0 {
		s += " <- " + formatInputs(recipe.Inputs)
	}
	return s + " (" + formatCount(recipe.CraftTime) + "s)"
}
