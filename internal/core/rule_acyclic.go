package core

import (
	"context"
	"fmt"
	"strings"

	"ratecalc/pkg/domain"
)

// NewAcyclicRule keeps the recipe graph a DAG. New recipes are checked input by
// input; a replaced catalog is searched for any cycle.
func NewAcyclicRule() domain.Rule {
	return acyclicRule{}
}

type acyclicRule struct{}

func (acyclicRule) Name() string { return RuleAcyclic }

func (acyclicRule) Evaluate(_ context.Context, view domain.CatalogView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, ch := range changes {
		switch {
		case ch.Action == ActionReplaceCatalog:
			if path := view.FindCycle(); path != nil {
				res.Violations = append(res.Violations, blockf(RuleAcyclic, domain.ErrCycle, path[0], -1, joinPath(path)))
			}
		case ch.Action == ActionPutRecipe && ch.After != nil && !ch.Ingredient.IsZero():
			for i, in := range ch.After.Inputs {
				if in.Ingredient.IsZero() {
					continue
				}
				if in.Ingredient == ch.Ingredient {
					res.Violations = append(res.Violations, blockf(RuleAcyclic, domain.ErrCycle, in.Ingredient, i,
						fmt.Sprintf("%s cannot be an input of itself", in.Ingredient)))
					continue
				}
				if view.WouldCreateCycle(ch.Ingredient, in.Ingredient) {
					res.Violations = append(res.Violations, blockf(RuleAcyclic, domain.ErrCycle, in.Ingredient, i,
						fmt.Sprintf("%s already depends on %s", in.Ingredient, ch.Ingredient)))
				}
			}
		}
	}
	return res, nil
}

func joinPath(path []Ingredient) string {
	names := make([]string, len(path))
	for i, ing := range path {
		names[i] = string(ing)
	}
	return strings.Join(names, " -> ")
}
