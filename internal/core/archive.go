package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ratecalc/internal/blob"
	"ratecalc/pkg/domain"
)

const (
	archivePrefix      = "catalogs/"
	archiveTimeLayout  = "20060102T150405.000000000Z"
	archiveContentType = "application/json"
)

// ErrNoArchive is returned when a catalog name has no archived versions.
var ErrNoArchive = errors.New("no archived catalog")

// CatalogArchive stores versioned catalog snapshots in a blob store. Keys are
// catalogs/<name>/<utc timestamp>-<uuid>.json, so lexical order is save order.
type CatalogArchive struct {
	store blob.Store
	clock Clock
	newID func() string
}

// NewCatalogArchive wraps store. A nil clock selects the system clock.
func NewCatalogArchive(store blob.Store, clock Clock) *CatalogArchive {
	if clock == nil {
		clock = systemClock()
	}
	return &CatalogArchive{store: store, clock: clock, newID: func() string { return uuid.NewString() }}
}

// Store returns the underlying blob store.
func (a *CatalogArchive) Store() blob.Store { return a.store }

func validateArchiveName(name string) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid catalog name %q", name)
	}
	return nil
}

func archiveDir(name string) string { return archivePrefix + name + "/" }

// Save writes catalog as a new version of name.
func (a *CatalogArchive) Save(ctx context.Context, name string, catalog *Catalog) (blob.Info, error) {
	if err := validateArchiveName(name); err != nil {
		return blob.Info{}, err
	}
	if catalog == nil {
		catalog = domain.NewCatalog()
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode catalog: %w", err)
	}
	key := archiveDir(name) + a.clock.Now().UTC().Format(archiveTimeLayout) + "-" + a.newID() + ".json"
	return a.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: archiveContentType,
		Metadata: map[string]string{
			"catalog":     name,
			"ingredients": strconv.Itoa(len(catalog.ListIngredients())),
			"recipes":     strconv.Itoa(catalog.RecipeCount()),
		},
	})
}

// List returns the archived versions of name, oldest first.
func (a *CatalogArchive) List(ctx context.Context, name string) ([]blob.Info, error) {
	if err := validateArchiveName(name); err != nil {
		return nil, err
	}
	infos, err := a.store.List(ctx, archiveDir(name))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", name, err)
	}
	return infos, nil
}

// LatestInfo returns the newest archived version of name.
func (a *CatalogArchive) LatestInfo(ctx context.Context, name string) (blob.Info, error) {
	infos, err := a.List(ctx, name)
	if err != nil {
		return blob.Info{}, err
	}
	if len(infos) == 0 {
		return blob.Info{}, fmt.Errorf("%s: %w", name, ErrNoArchive)
	}
	return infos[len(infos)-1], nil
}

// Load decodes the catalog stored at key. The catalog is not checked for
// cycles here; importing it through a store transaction is.
func (a *CatalogArchive) Load(ctx context.Context, key string) (*Catalog, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	catalog := domain.NewCatalog()
	if err := json.NewDecoder(rc).Decode(catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", key, err)
	}
	if catalog.Recipes == nil {
		catalog.Recipes = make(map[Ingredient]Recipe)
	}
	return catalog, nil
}
