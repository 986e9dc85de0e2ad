package core

import (
	"context"
	"fmt"

	"ratecalc/pkg/domain"
)

// NewUniqueInputsRule rejects recipes listing the same input ingredient twice.
func NewUniqueInputsRule() domain.Rule {
	return uniqueInputsRule{}
}

type uniqueInputsRule struct{}

func (uniqueInputsRule) Name() string { return RuleUniqueInputs }

func (uniqueInputsRule) Evaluate(_ context.Context, _ domain.CatalogView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, ch := range recipePuts(changes) {
		firstSlot := make(map[Ingredient]int, len(ch.After.Inputs))
		for i, in := range ch.After.Inputs {
			if in.Ingredient.IsZero() {
				continue
			}
			if prev, dup := firstSlot[in.Ingredient]; dup {
				res.Violations = append(res.Violations, blockf(RuleUniqueInputs, domain.ErrDuplicateInput, in.Ingredient, i,
					fmt.Sprintf("%s is used by input slots %d and %d of %s", in.Ingredient, prev, i, ch.Ingredient)))
				continue
			}
			firstSlot[in.Ingredient] = i
		}
	}
	return res, nil
}
