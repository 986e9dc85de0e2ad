package domain

import "sort"

// Source is the tagged result of a catalog lookup: either Producible, carrying
// the single recipe for the ingredient, or Raw when nothing produces it.
type Source interface {
	isSource()
}

// Producible marks an ingredient made by Recipe.
type Producible struct {
	Recipe Recipe
}

// Raw marks a primitive resource with no recipe.
type Raw struct{}

func (Producible) isSource() {}
func (Raw) isSource()        {}

// CatalogView is the read-only surface the rate engine, the recipe builder and
// the rules engine work against.
type CatalogView interface {
	Lookup(ing Ingredient) Source
	ListIngredients() []Ingredient
	HasIngredient(ing Ingredient) bool
	RecipeCount() int
	WouldCreateCycle(output, candidate Ingredient) bool
	FindCycle() []Ingredient
}

var _ CatalogView = (*Catalog)(nil)

// Catalog holds the known ingredients and the recipe producing each of them.
// The field layout is the serialized snapshot format.
type Catalog struct {
	Ingredients []Ingredient          `json:"known_ingredients"`
	Recipes     map[Ingredient]Recipe `json:"known_recipes"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		Ingredients: []Ingredient{},
		Recipes:     make(map[Ingredient]Recipe),
	}
}

// Lookup resolves how ingredient ing is obtained. Unknown ingredients are Raw.
func (c *Catalog) Lookup(ing Ingredient) Source {
	if c == nil {
		return Raw{}
	}
	if recipe, ok := c.Recipes[ing]; ok {
		return Producible{Recipe: recipe}
	}
	return Raw{}
}

// ListIngredients returns a copy of the known ingredients in catalog order.
func (c *Catalog) ListIngredients() []Ingredient {
	if c == nil {
		return nil
	}
	out := make([]Ingredient, len(c.Ingredients))
	copy(out, c.Ingredients)
	return out
}

// HasIngredient reports whether ing is a known ingredient (exact match).
func (c *Catalog) HasIngredient(ing Ingredient) bool {
	if c == nil {
		return false
	}
	for _, known := range c.Ingredients {
		if known == ing {
			return true
		}
	}
	return false
}

// RecipeCount returns the number of committed recipes.
func (c *Catalog) RecipeCount() int {
	if c == nil {
		return 0
	}
	return len(c.Recipes)
}

// AddIngredient appends ing when it is not already known and keeps the list
// sorted. It returns false for duplicates and for the empty sentinel.
func (c *Catalog) AddIngredient(ing Ingredient) bool {
	if ing.IsZero() || c.HasIngredient(ing) {
		return false
	}
	c.Ingredients = append(c.Ingredients, ing)
	sort.Slice(c.Ingredients, func(i, j int) bool { return c.Ingredients[i] < c.Ingredients[j] })
	return true
}

// PutRecipe stores recipe as the only recipe for output, replacing any prior
// one, and returns the replaced recipe if there was one. Ingredients named by
// the recipe are added to the known set. No invariants are checked here.
func (c *Catalog) PutRecipe(output Ingredient, recipe Recipe) (Recipe, bool) {
	if c.Recipes == nil {
		c.Recipes = make(map[Ingredient]Recipe)
	}
	prev, existed := c.Recipes[output]
	c.Recipes[output] = recipe.Clone()
	c.AddIngredient(output)
	for _, in := range recipe.Inputs {
		c.AddIngredient(in.Ingredient)
	}
	return prev, existed
}

// RemoveRecipe deletes the recipe for output, turning it back into a raw
// resource. The ingredient itself stays known.
func (c *Catalog) RemoveRecipe(output Ingredient) (Recipe, bool) {
	if c == nil {
		return Recipe{}, false
	}
	prev, ok := c.Recipes[output]
	if ok {
		delete(c.Recipes, output)
	}
	return prev, ok
}

// Clone returns a deep copy suitable for use as an immutable snapshot.
func (c *Catalog) Clone() *Catalog {
	out := NewCatalog()
	if c == nil {
		return out
	}
	out.Ingredients = append(out.Ingredients, c.Ingredients...)
	for ing, recipe := range c.Recipes {
		out.Recipes[ing] = recipe.Clone()
	}
	return out
}

// Equal reports structural equality of two catalogs.
func (c *Catalog) Equal(other *Catalog) bool {
	if c == nil || other == nil {
		return c.RecipeCount() == other.RecipeCount() && len(c.ListIngredients()) == len(other.ListIngredients())
	}
	if len(c.Ingredients) != len(other.Ingredients) || len(c.Recipes) != len(other.Recipes) {
		return false
	}
	for i := range c.Ingredients {
		if c.Ingredients[i] != other.Ingredients[i] {
			return false
		}
	}
	for ing, recipe := range c.Recipes {
		o, ok := other.Recipes[ing]
		if !ok || !recipe.Equal(o) {
			return false
		}
	}
	return true
}

// Normalize restores the catalog invariants after decoding from an external
// source: the known list is sorted, free of duplicates and the empty name, and
// includes every ingredient a recipe mentions.
func (c *Catalog) Normalize() {
	if c.Recipes == nil {
		c.Recipes = make(map[Ingredient]Recipe)
	}
	known := c.Ingredients
	c.Ingredients = make([]Ingredient, 0, len(known))
	for _, ing := range known {
		c.AddIngredient(ing)
	}
	for output, recipe := range c.Recipes {
		c.AddIngredient(output)
		for _, in := range recipe.Inputs {
			c.AddIngredient(in.Ingredient)
		}
	}
}

// SortedRecipeOutputs lists every ingredient that has a recipe, ascending.
func (c *Catalog) SortedRecipeOutputs() []Ingredient {
	if c == nil {
		return nil
	}
	out := make([]Ingredient, 0, len(c.Recipes))
	for ing := range c.Recipes {
		out = append(out, ing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
