// Package domain defines the recipe catalog model shared by the rate engine,
// the recipe builder and the persistence adapters.
package domain

import (
	"encoding/json"
	"fmt"
)

// Ingredient identifies a resource by name. The empty name is the
// "no selection" sentinel and is never valid inside a committed recipe.
type Ingredient string

// IsZero reports whether the ingredient is the unset sentinel.
func (i Ingredient) IsZero() bool { return i == "" }

func (i Ingredient) String() string { return string(i) }

// IngredientWithCount pairs an ingredient with a per-cycle quantity.
type IngredientWithCount struct {
	Ingredient Ingredient `json:"ingredient"`
	Count      float64    `json:"count"`
}

// IsPlaceholder reports whether the slot is still unset.
func (c IngredientWithCount) IsPlaceholder() bool {
	return c.Ingredient.IsZero() || c.Count == 0
}

// UnmarshalJSON accepts both the current "ingredient" key and the legacy
// "ing" key used by older catalog files.
func (c *IngredientWithCount) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ingredient *Ingredient `json:"ingredient"`
		Legacy     *Ingredient `json:"ing"`
		Count      float64     `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode ingredient count: %w", err)
	}
	c.Count = raw.Count
	c.Ingredient = ""
	switch {
	case raw.Ingredient != nil:
		c.Ingredient = *raw.Ingredient
	case raw.Legacy != nil:
		c.Ingredient = *raw.Legacy
	}
	return nil
}

// Recipe converts Inputs into OutputNum units of the ingredient it is keyed
// by, taking CraftTime seconds per cycle.
type Recipe struct {
	CraftTime float64               `json:"craft_time"`
	OutputNum float64               `json:"output_num"`
	Inputs    []IngredientWithCount `json:"inputs"`
}

// Clone returns a deep copy of the recipe.
func (r Recipe) Clone() Recipe {
	cp := r
	if r.Inputs != nil {
		cp.Inputs = make([]IngredientWithCount, len(r.Inputs))
		copy(cp.Inputs, r.Inputs)
	}
	return cp
}

// Equal reports structural equality, including input order.
func (r Recipe) Equal(other Recipe) bool {
	if r.CraftTime != other.CraftTime || r.OutputNum != other.OutputNum || len(r.Inputs) != len(other.Inputs) {
		return false
	}
	for i := range r.Inputs {
		if r.Inputs[i] != other.Inputs[i] {
			return false
		}
	}
	return true
}
