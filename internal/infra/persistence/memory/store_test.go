package memory

import (
	"context"
	"errors"
	"testing"

	"ratecalc/pkg/domain"
)

type blockRule struct{ kind error }

func (blockRule) Name() string { return "block" }

func (r blockRule) Evaluate(_ context.Context, _ domain.CatalogView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, ch := range changes {
		if ch.Action == domain.ActionPutRecipe {
			res.Violations = append(res.Violations, domain.Violation{Rule: "block", Severity: domain.SeverityBlock, Kind: r.kind, Ingredient: ch.Ingredient, Slot: -1})
		}
	}
	return res, nil
}

func TestRunInTransactionCommits(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if added, err := tx.AddIngredient("Log"); err != nil || !added {
			t.Fatalf("add ingredient: %v %v", added, err)
		}
		if added, err := tx.AddIngredient("Log"); err != nil || added {
			t.Fatalf("expected duplicate add to be a no-op")
		}
		return tx.PutRecipe("Plank", domain.Recipe{CraftTime: 2, OutputNum: 1, Inputs: []domain.IngredientWithCount{{Ingredient: "Log", Count: 2}}})
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	state := store.ExportState()
	if state.RecipeCount() != 1 || !state.HasIngredient("Plank") {
		t.Fatalf("expected committed recipe, got %+v", state)
	}
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, _ = tx.AddIngredient("Log")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if store.ExportState().HasIngredient("Log") {
		t.Fatalf("failed transaction leaked state")
	}
}

func TestRunInTransactionBlockedByRules(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockRule{kind: domain.ErrCycle})
	store := NewStore(engine)
	res, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.PutRecipe("Plank", domain.Recipe{OutputNum: 1})
	})
	var rv domain.RuleViolationError
	if !errors.As(err, &rv) || !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if store.ExportState().RecipeCount() != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
	if store.RulesEngine() != engine {
		t.Fatalf("expected configured engine")
	}
}

func TestTransactionRemoveAndReplace(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.AddIngredient(""); !errors.Is(err, domain.ErrEmptyIngredient) {
			t.Fatalf("expected empty ingredient error, got %v", err)
		}
		if err := tx.RemoveRecipe("Missing"); err == nil {
			t.Fatalf("expected missing recipe error")
		}
		if err := tx.ReplaceCatalog(nil); err == nil {
			t.Fatalf("expected nil catalog error")
		}
		replacement := domain.NewCatalog()
		replacement.PutRecipe("Plank", domain.Recipe{OutputNum: 1})
		if err := tx.ReplaceCatalog(replacement); err != nil {
			return err
		}
		if _, ok := tx.Snapshot().Lookup("Plank").(domain.Producible); !ok {
			t.Fatalf("snapshot should see replaced catalog")
		}
		return tx.RemoveRecipe("Plank")
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if store.ExportState().RecipeCount() != 0 {
		t.Fatalf("expected recipe removed")
	}
}

func TestViewIsolatedFromLaterWrites(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	seed := domain.NewCatalog()
	seed.AddIngredient("Log")
	store.ImportState(seed)
	seed.AddIngredient("Stone")
	if store.ExportState().HasIngredient("Stone") {
		t.Fatalf("import must copy the catalog")
	}

	err := store.View(ctx, func(view domain.CatalogView) error {
		if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
			_, err := tx.AddIngredient("Plank")
			return err
		}); err != nil {
			return err
		}
		if view.HasIngredient("Plank") {
			t.Fatalf("view snapshot changed under a concurrent write")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
