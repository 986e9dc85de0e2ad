package core

import "ratecalc/pkg/domain"

// Rule names reported in violations and build errors.
const (
	RuleOutputQuantity = "output_quantity"
	RuleInputSlots     = "input_slots"
	RuleUniqueInputs   = "unique_inputs"
	RuleAcyclic        = "acyclic"
)

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the recipe invariants, in
// the order their violations are reported.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewOutputQuantityRule())
	engine.Register(NewInputSlotsRule())
	engine.Register(NewUniqueInputsRule())
	engine.Register(NewAcyclicRule())
	return engine
}

// recipePuts yields the put_recipe changes carrying a new recipe.
func recipePuts(changes []Change) []Change {
	var out []Change
	for _, ch := range changes {
		if ch.Action == ActionPutRecipe && ch.After != nil {
			out = append(out, ch)
		}
	}
	return out
}

func blockf(rule string, kind error, ing Ingredient, slot int, msg string) Violation {
	return Violation{Rule: rule, Severity: SeverityBlock, Kind: kind, Ingredient: ing, Slot: slot, Message: msg}
}
