package core

import "ratecalc/pkg/domain"

type (
	Ingredient          = domain.Ingredient
	IngredientWithCount = domain.IngredientWithCount
	Recipe              = domain.Recipe
	Catalog             = domain.Catalog
	CatalogView         = domain.CatalogView
	Change              = domain.Change
	Violation           = domain.Violation
	Result              = domain.Result
	RulesEngine         = domain.RulesEngine
	BuildError          = domain.BuildError
	RuleViolationError  = domain.RuleViolationError
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionAddIngredient  = domain.ActionAddIngredient
	ActionPutRecipe      = domain.ActionPutRecipe
	ActionRemoveRecipe   = domain.ActionRemoveRecipe
	ActionReplaceCatalog = domain.ActionReplaceCatalog
)
