package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ratecalc/internal/blob"
	"ratecalc/pkg/domain"
)

func newTestArchive(store blob.Store) *CatalogArchive {
	clock := &stepClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), step: time.Second}
	a := NewCatalogArchive(store, clock)
	seq := 0
	a.newID = func() string {
		seq++
		return fmt.Sprintf("id%02d", seq)
	}
	return a
}

func TestCatalogArchiveSaveListLoad(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(blob.NewMemory())

	first, err := a.Save(ctx, "factory", plankCatalog())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.Key != "catalogs/factory/20240301T100000.000000000Z-id01.json" {
		t.Fatalf("unexpected key %s", first.Key)
	}
	if first.Metadata["recipes"] != "1" || first.Metadata["ingredients"] != "2" || first.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", first)
	}
	second, err := a.Save(ctx, "factory", diamondCatalog())
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if _, err := a.Save(ctx, "other", nil); err != nil {
		t.Fatalf("save nil catalog: %v", err)
	}

	infos, err := a.List(ctx, "factory")
	if err != nil || len(infos) != 2 || infos[0].Key != first.Key {
		t.Fatalf("unexpected list %+v %v", infos, err)
	}
	latest, err := a.LatestInfo(ctx, "factory")
	if err != nil || latest.Key != second.Key {
		t.Fatalf("unexpected latest %+v %v", latest, err)
	}

	cat, err := a.Load(ctx, first.Key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cat.Equal(plankCatalog()) {
		t.Fatalf("round trip mismatch %+v", cat)
	}
}

func TestCatalogArchiveErrors(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	a := newTestArchive(store)
	for _, name := range []string{"", "a/b", "..", " "} {
		if _, err := a.Save(ctx, name, plankCatalog()); err == nil {
			t.Fatalf("expected invalid name error for %q", name)
		}
	}
	if _, err := a.LatestInfo(ctx, "empty"); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("expected ErrNoArchive, got %v", err)
	}
	if _, err := a.Load(ctx, "catalogs/x/missing.json"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Put(ctx, "catalogs/bad/1.json", strings.NewReader("{oops"), blob.PutOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := a.Load(ctx, "catalogs/bad/1.json"); err == nil || !strings.Contains(err.Error(), "decode catalog") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestServiceExportImportCatalog(t *testing.T) {
	ctx := context.Background()
	logger := &captureLogger{}
	svc := mustService(t, WithLogger(logger))
	commitPlank(t, svc)
	a := newTestArchive(blob.NewMockS3ForTests())

	info, err := svc.ExportCatalog(ctx, a, "factory")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !logger.has("info", "catalog exported", "") {
		t.Fatalf("expected export log")
	}

	other := mustService(t)
	res, err := other.ImportCatalog(ctx, a, info.Key)
	if err != nil || res.HasBlocking() {
		t.Fatalf("import: %+v %v", res, err)
	}
	got, _ := other.Catalog(ctx)
	if !got.Equal(plankCatalog()) {
		t.Fatalf("imported catalog mismatch %+v", got)
	}

	latest, _, err := other.ImportLatestCatalog(ctx, a, "factory")
	if err != nil || latest.Key != info.Key {
		t.Fatalf("import latest: %+v %v", latest, err)
	}
	if _, _, err := other.ImportLatestCatalog(ctx, a, "nothing"); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("expected ErrNoArchive, got %v", err)
	}
}

func TestServiceImportRejectsCyclicArchive(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(blob.NewMemory())
	cyclic := domain.NewCatalog()
	cyclic.PutRecipe("A", Recipe{CraftTime: 1, OutputNum: 1, Inputs: []IngredientWithCount{in("B", 1)}})
	cyclic.PutRecipe("B", Recipe{CraftTime: 1, OutputNum: 1, Inputs: []IngredientWithCount{in("A", 1)}})
	info, err := a.Save(ctx, "broken", cyclic)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	svc := mustService(t)
	if _, err := svc.ImportCatalog(ctx, a, info.Key); !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected cycle rejection, got %v", err)
	}
}
