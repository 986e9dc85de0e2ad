package domain

import (
	"context"
	"errors"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Kind: ErrCycle}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() == "" {
		t.Fatalf("expected error string")
	}
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected rule violation to unwrap to ErrCycle")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRuleViolationErrorWithoutBlocking(t *testing.T) {
	err := RuleViolationError{}
	if err.Error() != "transaction blocked by rules" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(err.Unwrap()) != 0 {
		t.Fatalf("expected no wrapped errors")
	}
}

type stubRule struct {
	name string
	res  Result
	err  error
}

func (s stubRule) Name() string { return s.name }

func (s stubRule) Evaluate(context.Context, CatalogView, []Change) (Result, error) {
	return s.res, s.err
}

func TestRulesEngineEvaluateOrderAndError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "first", res: Result{Violations: []Violation{{Rule: "first", Severity: SeverityBlock, Kind: ErrOutputUnset}}}})
	engine.Register(stubRule{name: "second", res: Result{Violations: []Violation{{Rule: "second", Severity: SeverityBlock, Kind: ErrCycle}}}})

	res, err := engine.Evaluate(context.Background(), NewCatalog(), nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	first, ok := res.FirstBlocking()
	if !ok || first.Rule != "first" {
		t.Fatalf("expected first registered rule to win, got %+v", first)
	}
	if got := len(engine.Rules()); got != 2 {
		t.Fatalf("expected 2 rules, got %d", got)
	}

	engine.Register(stubRule{name: "broken", err: errors.New("boom")})
	if _, err := engine.Evaluate(context.Background(), NewCatalog(), nil); err == nil {
		t.Fatalf("expected rule error to propagate")
	}
}

func TestAsBuildError(t *testing.T) {
	err := RuleViolationError{Result: Result{Violations: []Violation{{Rule: "unique_inputs", Severity: SeverityBlock, Kind: ErrDuplicateInput, Ingredient: "Log", Slot: 1}}}}
	be, ok := AsBuildError(err)
	if !ok {
		t.Fatalf("expected build error")
	}
	if be.Rule != "unique_inputs" || be.Ingredient != "Log" || be.Slot != 1 {
		t.Fatalf("unexpected build error %+v", be)
	}
	if _, ok := AsBuildError(errors.New("plain")); ok {
		t.Fatalf("plain error should not be a build error")
	}
}
