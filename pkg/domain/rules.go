package domain

import (
	"context"
	"errors"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Action enumerates the catalog mutations captured by a transaction.
type Action string

const (
	ActionAddIngredient Action = "add_ingredient"
	ActionPutRecipe     Action = "put_recipe"
	ActionRemoveRecipe  Action = "remove_recipe"
	// ActionReplaceCatalog indicates the whole catalog was swapped, e.g. on import.
	ActionReplaceCatalog Action = "replace_catalog"
)

// Change records a single mutation within a transaction.
type Change struct {
	Action     Action
	Ingredient Ingredient
	Before     *Recipe
	After      *Recipe
}

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule       string
	Severity   Severity
	Message    string
	Kind       error
	Ingredient Ingredient
	Slot       int
}

// BuildError converts the violation into the error reported to callers.
func (v Violation) BuildError() *BuildError {
	return &BuildError{Kind: v.Kind, Rule: v.Rule, Ingredient: v.Ingredient, Slot: v.Slot, Msg: v.Message}
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	_, ok := r.FirstBlocking()
	return ok
}

// FirstBlocking returns the first blocking violation in evaluation order.
func (r Result) FirstBlocking() (Violation, bool) {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return v, true
		}
	}
	return Violation{}, false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if v, ok := e.Result.FirstBlocking(); ok {
		return "transaction blocked by rules: " + v.BuildError().Error()
	}
	return "transaction blocked by rules"
}

// Unwrap exposes each blocking violation so errors.Is matches its kind.
func (e RuleViolationError) Unwrap() []error {
	var errs []error
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock && v.Kind != nil {
			errs = append(errs, v.BuildError())
		}
	}
	return errs
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view CatalogView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (e *RulesEngine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view CatalogView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// AsBuildError extracts the first BuildError carried by err, if any.
func AsBuildError(err error) (*BuildError, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
