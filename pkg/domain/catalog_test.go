package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestLookupTaggedSource(t *testing.T) {
	cat := NewCatalog()
	cat.PutRecipe("Plank", Recipe{CraftTime: 2, OutputNum: 1, Inputs: []IngredientWithCount{{Ingredient: "Log", Count: 2}}})

	switch src := cat.Lookup("Plank").(type) {
	case Producible:
		if src.Recipe.CraftTime != 2 {
			t.Fatalf("unexpected recipe %+v", src.Recipe)
		}
	default:
		t.Fatalf("expected Plank to be producible, got %T", src)
	}
	if _, ok := cat.Lookup("Log").(Raw); !ok {
		t.Fatalf("expected Log to be raw")
	}
	if _, ok := cat.Lookup("Unknown").(Raw); !ok {
		t.Fatalf("expected unknown ingredient to be raw")
	}
	var nilCat *Catalog
	if _, ok := nilCat.Lookup("Plank").(Raw); !ok {
		t.Fatalf("expected nil catalog lookup to be raw")
	}
}

func TestNilCatalogReadsAndRemove(t *testing.T) {
	var cat *Catalog
	if _, ok := cat.RemoveRecipe("Plank"); ok {
		t.Fatalf("expected nothing removed from a nil catalog")
	}
	if cat.RecipeCount() != 0 || cat.HasIngredient("Plank") || cat.ListIngredients() != nil {
		t.Fatalf("expected nil catalog to read as empty")
	}
}

func TestAddIngredientKeepsSortedAndUnique(t *testing.T) {
	cat := NewCatalog()
	for _, name := range []Ingredient{"Stone", "Log", "Plank", "Log", ""} {
		cat.AddIngredient(name)
	}
	want := []Ingredient{"Log", "Plank", "Stone"}
	if !reflect.DeepEqual(cat.ListIngredients(), want) {
		t.Fatalf("expected %v, got %v", want, cat.ListIngredients())
	}
	if cat.AddIngredient("log") != true {
		t.Fatalf("ingredient names are case-sensitive")
	}
	if cat.AddIngredient("Log") {
		t.Fatalf("expected duplicate to be rejected")
	}
}

func TestPutRecipeReplacesAndRemove(t *testing.T) {
	cat := NewCatalog()
	if _, existed := cat.PutRecipe("Plank", Recipe{OutputNum: 1}); existed {
		t.Fatalf("first put should not replace")
	}
	prev, existed := cat.PutRecipe("Plank", Recipe{OutputNum: 4})
	if !existed || prev.OutputNum != 1 {
		t.Fatalf("expected replaced recipe, got %+v %v", prev, existed)
	}
	if cat.RecipeCount() != 1 {
		t.Fatalf("expected single recipe per output, got %d", cat.RecipeCount())
	}
	if _, ok := cat.RemoveRecipe("Plank"); !ok {
		t.Fatalf("expected remove to report existing recipe")
	}
	if _, ok := cat.Lookup("Plank").(Raw); !ok {
		t.Fatalf("expected Plank to be raw after removal")
	}
	if !cat.HasIngredient("Plank") {
		t.Fatalf("expected ingredient to stay known")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cat := NewCatalog()
	cat.PutRecipe("Plank", Recipe{OutputNum: 1, Inputs: []IngredientWithCount{{Ingredient: "Log", Count: 2}}})
	cp := cat.Clone()
	cp.Recipes["Plank"].Inputs[0].Count = 99
	cp.AddIngredient("Stone")
	if cat.Recipes["Plank"].Inputs[0].Count != 2 {
		t.Fatalf("clone shares recipe inputs")
	}
	if cat.HasIngredient("Stone") {
		t.Fatalf("clone shares ingredient list")
	}
}

func TestCatalogJSONRoundTrip(t *testing.T) {
	cat := NewCatalog()
	cat.AddIngredient("Log")
	cat.AddIngredient("Stone")
	cat.PutRecipe("Plank", Recipe{CraftTime: 2, OutputNum: 1, Inputs: []IngredientWithCount{{Ingredient: "Log", Count: 2}}})
	cat.PutRecipe("Tool", Recipe{CraftTime: 5.5, OutputNum: 2, Inputs: []IngredientWithCount{{Ingredient: "Plank", Count: 1}, {Ingredient: "Stone", Count: 3}}})

	data, err := json.Marshal(cat)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Catalog
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !cat.Equal(&decoded) {
		t.Fatalf("round trip mismatch:\n%s\n%+v", data, decoded)
	}
}

func TestCatalogJSONShape(t *testing.T) {
	cat := NewCatalog()
	cat.PutRecipe("Plank", Recipe{CraftTime: 2, OutputNum: 1, Inputs: []IngredientWithCount{{Ingredient: "Log", Count: 2}}})
	data, err := json.Marshal(cat)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"known_ingredients":["Log","Plank"],"known_recipes":{"Plank":{"craft_time":2,"output_num":1,"inputs":[{"ingredient":"Log","count":2}]}}}`
	if string(data) != want {
		t.Fatalf("unexpected json:\nwant %s\ngot  %s", want, data)
	}
}

func TestIngredientWithCountAcceptsLegacyKey(t *testing.T) {
	var legacy Catalog
	raw := `{"known_ingredients":["Log","Plank"],"known_recipes":{"Plank":{"craft_time":2,"output_num":1,"inputs":[{"ing":"Log","count":2}]}}}`
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if got := legacy.Recipes["Plank"].Inputs[0].Ingredient; got != "Log" {
		t.Fatalf("expected legacy ing key to decode, got %q", got)
	}
	var bad IngredientWithCount
	if err := json.Unmarshal([]byte(`{"count":"x"}`), &bad); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestPlaceholder(t *testing.T) {
	if !(IngredientWithCount{}).IsPlaceholder() {
		t.Fatalf("zero value should be a placeholder")
	}
	if !(IngredientWithCount{Ingredient: "Log"}).IsPlaceholder() {
		t.Fatalf("zero count should be a placeholder")
	}
	if (IngredientWithCount{Ingredient: "Log", Count: 1}).IsPlaceholder() {
		t.Fatalf("set slot should not be a placeholder")
	}
}

func TestNormalizeRestoresKnownList(t *testing.T) {
	cat := &Catalog{
		Ingredients: []Ingredient{"Stone", "", "Log", "Stone"},
		Recipes: map[Ingredient]Recipe{
			"Plank": {CraftTime: 1, OutputNum: 1, Inputs: []IngredientWithCount{{Ingredient: "Birch", Count: 1}}},
		},
	}
	cat.Normalize()
	want := []Ingredient{"Birch", "Log", "Plank", "Stone"}
	if !reflect.DeepEqual(cat.Ingredients, want) {
		t.Fatalf("unexpected ingredients %v", cat.Ingredients)
	}

	empty := &Catalog{}
	empty.Normalize()
	if empty.Recipes == nil || len(empty.Ingredients) != 0 {
		t.Fatalf("expected initialised empty catalog, got %+v", empty)
	}
}
