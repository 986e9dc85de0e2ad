package core

import (
	"context"
	"fmt"

	"ratecalc/pkg/domain"
)

// DraftState describes where a RecipeBuilder draft is in its lifecycle.
type DraftState string

const (
	DraftEmpty     DraftState = "empty"
	DraftInvalid   DraftState = "invalid"
	DraftValid     DraftState = "valid"
	DraftCommitted DraftState = "committed"
)

// RecipeBuilder is the draft of a recipe being authored. It owns the
// reservation bookkeeping of which ingredients occupy an input slot; callers
// only see slot-level mutators.
type RecipeBuilder struct {
	engine    *RulesEngine
	craftTime float64
	output    IngredientWithCount
	inputs    []IngredientWithCount
	used      map[Ingredient]int
	available []Ingredient
	committed bool
}

// NewRecipeBuilder returns an empty draft validated by the default recipe rules.
func NewRecipeBuilder() *RecipeBuilder {
	return NewRecipeBuilderWithRules(nil)
}

// NewRecipeBuilderWithRules returns an empty draft validated by engine. A nil
// engine selects NewDefaultRulesEngine.
func NewRecipeBuilderWithRules(engine *RulesEngine) *RecipeBuilder {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return &RecipeBuilder{engine: engine, used: make(map[Ingredient]int)}
}

// Reset returns the draft to the Empty state.
func (b *RecipeBuilder) Reset() {
	b.craftTime = 0
	b.output = IngredientWithCount{}
	b.inputs = nil
	b.used = make(map[Ingredient]int)
	b.available = nil
	b.committed = false
}

// Edit loads the committed recipe for output into the draft, replacing
// whatever was being edited. Raw ingredients start a fresh draft for output.
func (b *RecipeBuilder) Edit(view CatalogView, output Ingredient) {
	b.Reset()
	b.output.Ingredient = output
	if src, ok := view.Lookup(output).(domain.Producible); ok {
		b.craftTime = src.Recipe.CraftTime
		b.output.Count = src.Recipe.OutputNum
		for _, in := range src.Recipe.Inputs {
			b.inputs = append(b.inputs, in)
			b.reserve(in.Ingredient)
		}
	}
}

func (b *RecipeBuilder) touch() {
	b.committed = false
}

func (b *RecipeBuilder) reserve(ing Ingredient) {
	if ing.IsZero() {
		return
	}
	b.used[ing]++
}

func (b *RecipeBuilder) release(ing Ingredient) {
	if ing.IsZero() {
		return
	}
	if b.used[ing] <= 1 {
		delete(b.used, ing)
		return
	}
	b.used[ing]--
}

func (b *RecipeBuilder) checkSlot(i int) error {
	if i < 0 || i >= len(b.inputs) {
		return fmt.Errorf("slot %d of %d: %w", i, len(b.inputs), domain.ErrSlotOutOfRange)
	}
	return nil
}

// CraftTime returns the draft craft time in seconds.
func (b *RecipeBuilder) CraftTime() float64 { return b.craftTime }

// SetCraftTime sets the seconds per completed cycle.
func (b *RecipeBuilder) SetCraftTime(seconds float64) {
	b.touch()
	b.craftTime = seconds
}

// Output returns the draft output slot.
func (b *RecipeBuilder) Output() IngredientWithCount { return b.output }

// SetOutput selects the output ingredient. Any input slot holding the same
// ingredient is reset to a placeholder, since nothing can be its own input.
func (b *RecipeBuilder) SetOutput(ing Ingredient) {
	b.touch()
	b.output.Ingredient = ing
	if ing.IsZero() {
		return
	}
	for i := range b.inputs {
		if b.inputs[i].Ingredient == ing {
			b.release(ing)
			b.inputs[i] = IngredientWithCount{}
		}
	}
}

// SetOutputCount sets the quantity produced per cycle.
func (b *RecipeBuilder) SetOutputCount(n float64) {
	b.touch()
	b.output.Count = n
}

// NumInputs returns the number of input slots, placeholders included.
func (b *RecipeBuilder) NumInputs() int { return len(b.inputs) }

// Inputs returns a copy of the input slots.
func (b *RecipeBuilder) Inputs() []IngredientWithCount {
	out := make([]IngredientWithCount, len(b.inputs))
	copy(out, b.inputs)
	return out
}

// Input returns slot i.
func (b *RecipeBuilder) Input(i int) (IngredientWithCount, error) {
	if err := b.checkSlot(i); err != nil {
		return IngredientWithCount{}, err
	}
	return b.inputs[i], nil
}

// IsReserved reports whether ing currently occupies an input slot.
func (b *RecipeBuilder) IsReserved(ing Ingredient) bool {
	return b.used[ing] > 0
}

// AddBlankInput appends a placeholder slot and returns its index.
func (b *RecipeBuilder) AddBlankInput() int {
	b.touch()
	b.inputs = append(b.inputs, IngredientWithCount{})
	return len(b.inputs) - 1
}

// SetInput puts ing into slot i, releasing the slot's previous ingredient.
func (b *RecipeBuilder) SetInput(i int, ing Ingredient) error {
	if err := b.checkSlot(i); err != nil {
		return err
	}
	b.touch()
	b.release(b.inputs[i].Ingredient)
	b.inputs[i].Ingredient = ing
	b.reserve(ing)
	return nil
}

// SetInputCount sets the per-cycle quantity of slot i.
func (b *RecipeBuilder) SetInputCount(i int, n float64) error {
	if err := b.checkSlot(i); err != nil {
		return err
	}
	b.touch()
	b.inputs[i].Count = n
	return nil
}

// RemoveInput deletes slot i and shifts later slots down.
func (b *RecipeBuilder) RemoveInput(i int) error {
	if err := b.checkSlot(i); err != nil {
		return err
	}
	b.touch()
	b.release(b.inputs[i].Ingredient)
	b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
	return nil
}

// RecomputeAvailableIngredients rebuilds the candidate list for input slot
// slot (-1 for a slot not created yet): the slot's current ingredient plus
// every known ingredient that is not reserved and would not close a cycle
// with the draft output. Catalog order is preserved. The result is cached.
func (b *RecipeBuilder) RecomputeAvailableIngredients(view CatalogView, slot int) ([]Ingredient, error) {
	var current Ingredient
	if slot != -1 {
		in, err := b.Input(slot)
		if err != nil {
			return nil, err
		}
		current = in.Ingredient
	}
	known := view.ListIngredients()
	available := make([]Ingredient, 0, len(known))
	for _, ing := range known {
		if !current.IsZero() && ing == current {
			available = append(available, ing)
			continue
		}
		if b.IsReserved(ing) {
			continue
		}
		if !b.output.Ingredient.IsZero() && view.WouldCreateCycle(b.output.Ingredient, ing) {
			continue
		}
		available = append(available, ing)
	}
	b.available = available
	return b.AvailableIngredients(), nil
}

// AvailableIngredients returns the list cached by the last recompute.
func (b *RecipeBuilder) AvailableIngredients() []Ingredient {
	out := make([]Ingredient, len(b.available))
	copy(out, b.available)
	return out
}

// OutputCandidates lists known ingredients other than the current output.
func (b *RecipeBuilder) OutputCandidates(view CatalogView) []Ingredient {
	known := view.ListIngredients()
	out := make([]Ingredient, 0, len(known))
	for _, ing := range known {
		if ing != b.output.Ingredient {
			out = append(out, ing)
		}
	}
	return out
}

// Draft returns the output ingredient and the recipe the draft describes.
func (b *RecipeBuilder) Draft() (Ingredient, Recipe) {
	recipe := Recipe{
		CraftTime: b.craftTime,
		OutputNum: b.output.Count,
		Inputs:    b.Inputs(),
	}
	return b.output.Ingredient, recipe
}

// Change returns the put_recipe change the draft would apply.
func (b *RecipeBuilder) Change(view CatalogView) Change {
	output, recipe := b.Draft()
	ch := Change{Action: ActionPutRecipe, Ingredient: output, After: &recipe}
	if src, ok := view.Lookup(output).(domain.Producible); ok {
		before := src.Recipe.Clone()
		ch.Before = &before
	}
	return ch
}

// Validate checks the draft against the catalog and returns a *BuildError
// naming the first violated rule, or nil when the draft can be committed.
func (b *RecipeBuilder) Validate(view CatalogView) error {
	res, err := b.engine.Evaluate(context.Background(), view, []Change{b.Change(view)})
	if err != nil {
		return err
	}
	if v, ok := res.FirstBlocking(); ok {
		return v.BuildError()
	}
	return nil
}

// Commit validates the draft and stores it as the recipe for its output,
// replacing any prior recipe. On failure neither the catalog nor the draft
// change. On success the draft resets and reports DraftCommitted until the
// next mutation.
func (b *RecipeBuilder) Commit(catalog *Catalog) error {
	if err := b.Validate(catalog); err != nil {
		return err
	}
	output, recipe := b.Draft()
	catalog.PutRecipe(output, recipe)
	b.markCommitted()
	return nil
}

func (b *RecipeBuilder) markCommitted() {
	b.Reset()
	b.committed = true
}

// State classifies the draft against view.
func (b *RecipeBuilder) State(view CatalogView) DraftState {
	if b.committed {
		return DraftCommitted
	}
	if b.output == (IngredientWithCount{}) && b.craftTime == 0 && len(b.inputs) == 0 {
		return DraftEmpty
	}
	if b.Validate(view) != nil {
		return DraftInvalid
	}
	return DraftValid
}
