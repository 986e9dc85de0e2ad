package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOutputUnset         = errors.New("output ingredient not set")
	ErrInputUnset          = errors.New("input ingredient not set")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrInvalidCraftTime    = errors.New("craft time must be a finite non-negative number")
	ErrDuplicateInput      = errors.New("duplicate input ingredient")
	ErrCycle               = errors.New("recipe cycle")
	ErrDegenerateRecipe    = errors.New("degenerate recipe")
	ErrSlotOutOfRange      = errors.New("input slot out of range")
	ErrEmptyIngredient     = errors.New("ingredient name required")
)

// BuildError reports the rule a recipe submission violated. Slot is the input
// slot index, or -1 when the violation concerns the output or the recipe as a
// whole.
type BuildError struct {
	Kind       error
	Rule       string
	Ingredient Ingredient
	Slot       int
	Msg        string
}

func (e *BuildError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *BuildError) Unwrap() error { return e.Kind }

// DegenerateRecipeError is returned at query time when a committed recipe
// cannot produce a finite rate, for example output_num == 0.
type DegenerateRecipeError struct {
	Ingredient Ingredient
	Recipe     Recipe
}

func (e *DegenerateRecipeError) Error() string {
	return fmt.Sprintf("%s: %s has output_num %g", ErrDegenerateRecipe, e.Ingredient, e.Recipe.OutputNum)
}

func (e *DegenerateRecipeError) Unwrap() error { return ErrDegenerateRecipe }

// CycleError carries a witness path for a cycle found in a catalog.
type CycleError struct {
	Path []Ingredient
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCycle.Error()
	}
	names := make([]string, len(e.Path))
	for i, ing := range e.Path {
		names[i] = string(ing)
	}
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(names, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }
