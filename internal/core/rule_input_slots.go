package core

import (
	"context"
	"fmt"
	"math"

	"ratecalc/pkg/domain"
)

// NewInputSlotsRule requires every input slot to name an ingredient with a
// quantity of at least one.
func NewInputSlotsRule() domain.Rule {
	return inputSlotsRule{}
}

type inputSlotsRule struct{}

func (inputSlotsRule) Name() string { return RuleInputSlots }

func (inputSlotsRule) Evaluate(_ context.Context, _ domain.CatalogView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, ch := range recipePuts(changes) {
		for i, in := range ch.After.Inputs {
			if in.Ingredient.IsZero() {
				res.Violations = append(res.Violations, blockf(RuleInputSlots, domain.ErrInputUnset, ch.Ingredient, i,
					fmt.Sprintf("input slot %d of %s is empty", i, ch.Ingredient)))
				continue
			}
			if !(in.Count >= 1) || math.IsInf(in.Count, 0) {
				res.Violations = append(res.Violations, blockf(RuleInputSlots, domain.ErrNonPositiveQuantity, in.Ingredient, i,
					fmt.Sprintf("input %s of %s has quantity %g, need at least 1", in.Ingredient, ch.Ingredient, in.Count)))
			}
		}
	}
	return res, nil
}
