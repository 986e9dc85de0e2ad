package core

import (
	"fmt"
	"math"

	"ratecalc/pkg/domain"
)

// InputRate is the rate at which one recipe input must be supplied.
type InputRate struct {
	Ingredient Ingredient `json:"ingredient"`
	Rate       float64    `json:"rate"`
}

// RateStep is the result of expanding a single recipe for a desired rate.
// Producible is false for raw ingredients, in which case Producers is zero and
// Inputs is nil.
type RateStep struct {
	Producible bool        `json:"producible"`
	Producers  float64     `json:"producers"`
	Inputs     []InputRate `json:"inputs,omitempty"`
}

// DemandNode is one ingredient occurrence in an expanded demand tree.
type DemandNode struct {
	Ingredient Ingredient    `json:"ingredient"`
	Producers  float64       `json:"producers"`
	Rate       float64       `json:"rate"`
	Children   []*DemandNode `json:"children,omitempty"`
}

// RequiredRates computes how many producers of target are needed to sustain
// rate units per second and the rate each recipe input must be supplied at.
// Ingredients without a recipe, including unknown ones, are raw resources.
// A negative or non-finite rate fails with ErrInvalidRate.
func RequiredRates(view CatalogView, target Ingredient, rate float64) (RateStep, error) {
	if err := checkRate(rate); err != nil {
		return RateStep{}, err
	}
	return requiredRates(view, target, rate)
}

func checkRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return fmt.Errorf("%g: %w", rate, ErrInvalidRate)
	}
	return nil
}

func requiredRates(view CatalogView, target Ingredient, rate float64) (RateStep, error) {
	switch src := view.Lookup(target).(type) {
	case domain.Producible:
		recipe := src.Recipe
		if recipe.OutputNum == 0 {
			return RateStep{}, &domain.DegenerateRecipeError{Ingredient: target, Recipe: recipe}
		}
		cycles := rate / recipe.OutputNum
		producers := cycles * recipe.CraftTime
		if !finite(cycles) || !finite(producers) {
			return RateStep{}, &domain.DegenerateRecipeError{Ingredient: target, Recipe: recipe}
		}
		inputs := make([]InputRate, 0, len(recipe.Inputs))
		for _, in := range recipe.Inputs {
			inputs = append(inputs, InputRate{Ingredient: in.Ingredient, Rate: in.Count * cycles})
		}
		return RateStep{Producible: true, Producers: producers, Inputs: inputs}, nil
	case domain.Raw:
		return RateStep{}, nil
	default:
		return RateStep{}, fmt.Errorf("unexpected catalog source %T for %s", src, target)
	}
}

// ExpandTree applies RequiredRates recursively and returns the full demand
// tree rooted at target. The walk uses an explicit stack; a chain longer than
// the number of recipes can only come from a cyclic catalog and is reported as
// domain.ErrCycle.
func ExpandTree(view CatalogView, target Ingredient, rate float64) (*DemandNode, error) {
	if err := checkRate(rate); err != nil {
		return nil, err
	}
	type frame struct {
		node  *DemandNode
		depth int
	}
	maxDepth := view.RecipeCount()
	root := &DemandNode{Ingredient: target, Rate: rate}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxDepth {
			return nil, cycleAt(f.node.Ingredient)
		}
		step, err := requiredRates(view, f.node.Ingredient, f.node.Rate)
		if err != nil {
			return nil, err
		}
		f.node.Producers = step.Producers
		if len(step.Inputs) == 0 {
			continue
		}
		f.node.Children = make([]*DemandNode, len(step.Inputs))
		for i, in := range step.Inputs {
			f.node.Children[i] = &DemandNode{Ingredient: in.Ingredient, Rate: in.Rate}
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
	return root, nil
}

// Walk visits the tree depth-first in input order, passing each node's depth.
func (n *DemandNode) Walk(fn func(node *DemandNode, depth int)) {
	if n == nil {
		return
	}
	type frame struct {
		node  *DemandNode
		depth int
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.node, f.depth)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
}

func cycleAt(ing Ingredient) error {
	return fmt.Errorf("expand %s: %w", ing, domain.ErrCycle)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
