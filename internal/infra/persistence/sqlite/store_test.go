package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ratecalc/pkg/domain"
)

func plankRecipe() domain.Recipe {
	return domain.Recipe{CraftTime: 2, OutputNum: 1, Inputs: []domain.IngredientWithCount{{Ingredient: "Log", Count: 2}}}
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.AddIngredient("Stone"); err != nil {
			return err
		}
		return tx.PutRecipe("Plank", plankRecipe())
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	want := store.ExportState()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := reloaded.ExportState(); !got.Equal(want) {
		t.Fatalf("reloaded catalog mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
}

func TestSQLiteStoreEmptyDatabase(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "empty.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if got := store.ExportState(); got.RecipeCount() != 0 || len(got.ListIngredients()) != 0 {
		t.Fatalf("expected empty catalog, got %+v", got)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted buckets before first transaction, got %d", count)
	}
}

func TestSQLiteStoreFailedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, _ = tx.AddIngredient("Log")
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	_ = store.Close()

	reloaded, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if reloaded.ExportState().HasIngredient("Log") {
		t.Fatalf("rolled back transaction was persisted")
	}
}

func TestSQLiteStoreCorruptBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES('recipes', ?)`, []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt bucket: %v", err)
	}
	_ = store.Close()
	if _, err := NewStore(path, nil); err == nil {
		t.Fatalf("expected decode error for corrupt bucket")
	}
}

func TestSQLiteStorePersistFailureRestoresCatalog(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.AddIngredient("Log")
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := store.ExportState()

	if _, err := store.DB().Exec(`DROP TABLE state`); err != nil {
		t.Fatalf("drop state table: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.PutRecipe("Plank", plankRecipe())
	}); err == nil {
		t.Fatalf("expected persist error once the state table is gone")
	}
	after := store.ExportState()
	if !after.Equal(before) {
		t.Fatalf("failed persist left a partial change:\nwant %+v\ngot  %+v", before, after)
	}
	if _, ok := after.Lookup("Plank").(domain.Producible); ok {
		t.Fatalf("recipe survived a failed persist")
	}
}
