// Package memory provides an in-memory implementation of the catalog
// persistence store used for tests, ephemeral runs and as the transactional
// core of the SQL-backed stores.
package memory

import (
	"context"
	"fmt"
	"sync"

	"ratecalc/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Catalog aliases domain.Catalog.
	Catalog = domain.Catalog
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
)

// Store provides an in-memory transactional store for the catalog.
type Store struct {
	mu     sync.RWMutex
	state  *Catalog
	engine *RulesEngine
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  domain.NewCatalog(),
		engine: engine,
	}
}

// ExportState clones the current catalog for external persistence.
func (s *Store) ExportState() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ImportState replaces the store state with the provided catalog without
// evaluating rules.
func (s *Store) ImportState(catalog *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = catalog.Clone()
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type transaction struct {
	state   *Catalog
	changes []Change
}

// RunInTransaction executes fn against a copy of the catalog. The copy
// replaces the live state only when fn succeeds and no rule blocks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.Clone()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil && len(tx.changes) > 0 {
		res, err := s.engine.Evaluate(ctx, tx.state, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the catalog.
func (s *Store) View(_ context.Context, fn func(domain.CatalogView) error) error {
	s.mu.RLock()
	snapshot := s.state.Clone()
	s.mu.RUnlock()
	return fn(snapshot)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() domain.CatalogView {
	return tx.state
}

func (tx *transaction) AddIngredient(ing domain.Ingredient) (bool, error) {
	if ing.IsZero() {
		return false, domain.ErrEmptyIngredient
	}
	if !tx.state.AddIngredient(ing) {
		return false, nil
	}
	tx.recordChange(Change{Action: domain.ActionAddIngredient, Ingredient: ing})
	return true, nil
}

func (tx *transaction) PutRecipe(output domain.Ingredient, recipe domain.Recipe) error {
	after := recipe.Clone()
	prev, existed := tx.state.PutRecipe(output, recipe)
	change := Change{Action: domain.ActionPutRecipe, Ingredient: output, After: &after}
	if existed {
		change.Before = &prev
	}
	tx.recordChange(change)
	return nil
}

func (tx *transaction) RemoveRecipe(output domain.Ingredient) error {
	prev, ok := tx.state.RemoveRecipe(output)
	if !ok {
		return fmt.Errorf("remove recipe %s: not found", output)
	}
	tx.recordChange(Change{Action: domain.ActionRemoveRecipe, Ingredient: output, Before: &prev})
	return nil
}

func (tx *transaction) ReplaceCatalog(catalog *Catalog) error {
	if catalog == nil {
		return fmt.Errorf("replace catalog: nil catalog")
	}
	tx.state = catalog.Clone()
	tx.state.Normalize()
	tx.recordChange(Change{Action: domain.ActionReplaceCatalog})
	return nil
}
