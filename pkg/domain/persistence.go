package domain

import "context"

// Transaction exposes the catalog operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() CatalogView
	AddIngredient(ing Ingredient) (bool, error)
	PutRecipe(output Ingredient, recipe Recipe) error
	RemoveRecipe(output Ingredient) error
	ReplaceCatalog(catalog *Catalog) error
}

// PersistentStore is a minimal abstraction over durable backends. Writers go
// through RunInTransaction; readers get a cloned snapshot that later
// transactions never mutate.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(CatalogView) error) error
	ExportState() *Catalog
	ImportState(catalog *Catalog)
}
