package core

import (
	"context"
	"fmt"
	"math"

	"ratecalc/pkg/domain"
)

// NewOutputQuantityRule requires a set output ingredient, a positive output
// quantity and a finite, non-negative craft time.
func NewOutputQuantityRule() domain.Rule {
	return outputQuantityRule{}
}

type outputQuantityRule struct{}

func (outputQuantityRule) Name() string { return RuleOutputQuantity }

func (outputQuantityRule) Evaluate(_ context.Context, _ domain.CatalogView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, ch := range recipePuts(changes) {
		recipe := ch.After
		if ch.Ingredient.IsZero() {
			res.Violations = append(res.Violations, blockf(RuleOutputQuantity, domain.ErrOutputUnset, ch.Ingredient, -1, "recipe has no output ingredient"))
			continue
		}
		if !(recipe.OutputNum > 0) || math.IsInf(recipe.OutputNum, 0) {
			res.Violations = append(res.Violations, blockf(RuleOutputQuantity, domain.ErrNonPositiveQuantity, ch.Ingredient, -1,
				fmt.Sprintf("output %s quantity %g", ch.Ingredient, recipe.OutputNum)))
		}
		if !(recipe.CraftTime >= 0) || math.IsInf(recipe.CraftTime, 0) {
			res.Violations = append(res.Violations, blockf(RuleOutputQuantity, domain.ErrInvalidCraftTime, ch.Ingredient, -1,
				fmt.Sprintf("output %s craft time %g", ch.Ingredient, recipe.CraftTime)))
		}
	}
	return res, nil
}
