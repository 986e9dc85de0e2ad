package core

import (
	"context"
	"errors"
	"fmt"

	"ratecalc/internal/blob"
	"ratecalc/internal/infra/persistence/memory"
	"ratecalc/pkg/domain"
)

// ErrInvalidRate is returned for negative or non-finite query rates.
var ErrInvalidRate = errors.New("rate must be a finite non-negative number")

// ErrNotFound is returned when an operation references a missing recipe.
type ErrNotFound struct {
	Ingredient Ingredient
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("recipe for %s not found", e.Ingredient)
}

// Service exposes catalog mutations and rate queries over a persistent store,
// with logging, metrics and tracing around every operation.
type Service struct {
	store   domain.PersistentStore
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		logger:  noopLogger{},
		clock:   systemClock(),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine. A nil engine selects NewDefaultRulesEngine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	elapsed := s.clock.Now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	attrs := []any{"operation", op}
	if id := SpanID(ctx); id != "" {
		attrs = append(attrs, "span_id", id)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
		if rejected(err) {
			s.logger.Warn("operation rejected", attrs...)
		} else {
			s.logger.Error("operation failed", attrs...)
		}
		return err
	}
	s.logger.Debug("operation completed", append(attrs, "duration", elapsed)...)
	return nil
}

// rejected reports errors caused by the request rather than the backend.
func rejected(err error) bool {
	var be *domain.BuildError
	var rv domain.RuleViolationError
	var nf ErrNotFound
	switch {
	case errors.As(err, &be), errors.As(err, &rv), errors.As(err, &nf):
		return true
	default:
		return errors.Is(err, domain.ErrDegenerateRecipe) || errors.Is(err, ErrInvalidRate) ||
			errors.Is(err, ErrNoArchive) || errors.Is(err, blob.ErrNotFound)
	}
}

func (s *Service) logWarnings(op string, res Result) {
	for _, v := range res.Violations {
		if v.Severity == SeverityBlock {
			continue
		}
		s.logger.Info("rule note", "operation", op, "rule", v.Rule, "severity", string(v.Severity), "message", v.Message)
	}
}

// AddIngredient registers a raw ingredient name. It reports false when the
// name was already known.
func (s *Service) AddIngredient(ctx context.Context, name string) (bool, error) {
	var added bool
	err := s.run(ctx, "add_ingredient", func(ctx context.Context) error {
		ing := Ingredient(name)
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			added, err = tx.AddIngredient(ing)
			return err
		})
		s.logWarnings("add_ingredient", res)
		return err
	})
	return added, err
}

// CommitRecipe validates the draft against the current catalog and stores it.
// On success the draft is reset; on failure both are left unchanged.
func (s *Service) CommitRecipe(ctx context.Context, draft *RecipeBuilder) (Result, error) {
	var res Result
	err := s.run(ctx, "commit_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if err := draft.Validate(tx.Snapshot()); err != nil {
				return err
			}
			output, recipe := draft.Draft()
			return tx.PutRecipe(output, recipe)
		})
		s.logWarnings("commit_recipe", res)
		return err
	})
	if err != nil {
		return res, err
	}
	draft.markCommitted()
	return res, nil
}

// PutRecipe stores recipe for output, subject to the store's rules.
func (s *Service) PutRecipe(ctx context.Context, output Ingredient, recipe Recipe) (Result, error) {
	var res Result
	err := s.run(ctx, "put_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.PutRecipe(output, recipe)
		})
		s.logWarnings("put_recipe", res)
		return err
	})
	return res, err
}

// RemoveRecipe deletes the recipe for output, making it a raw resource again.
func (s *Service) RemoveRecipe(ctx context.Context, output Ingredient) (Result, error) {
	var res Result
	err := s.run(ctx, "remove_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := tx.Snapshot().Lookup(output).(domain.Producible); !ok {
				return ErrNotFound{Ingredient: output}
			}
			return tx.RemoveRecipe(output)
		})
		return err
	})
	return res, err
}

// LoadCatalog replaces the whole catalog, rejecting catalogs with cycles.
func (s *Service) LoadCatalog(ctx context.Context, catalog *Catalog) (Result, error) {
	var res Result
	err := s.run(ctx, "load_catalog", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.ReplaceCatalog(catalog)
		})
		return err
	})
	return res, err
}

// Catalog returns a snapshot of the current catalog.
func (s *Service) Catalog(ctx context.Context) (*Catalog, error) {
	var out *Catalog
	err := s.run(ctx, "catalog", func(context.Context) error {
		out = s.store.ExportState()
		return nil
	})
	return out, err
}

// RequiredRates runs a single propagation step against the current catalog.
func (s *Service) RequiredRates(ctx context.Context, target Ingredient, rate float64) (RateStep, error) {
	var step RateStep
	err := s.run(ctx, "required_rates", func(ctx context.Context) error {
		return s.store.View(ctx, func(view domain.CatalogView) error {
			var err error
			step, err = RequiredRates(view, target, rate)
			return err
		})
	})
	return step, err
}

// ExpandTree returns the full demand tree for target at rate.
func (s *Service) ExpandTree(ctx context.Context, target Ingredient, rate float64) (*DemandNode, error) {
	var tree *DemandNode
	err := s.run(ctx, "expand_tree", func(ctx context.Context) error {
		return s.store.View(ctx, func(view domain.CatalogView) error {
			var err error
			tree, err = ExpandTree(view, target, rate)
			return err
		})
	})
	return tree, err
}

// AggregateRates returns merged per-ingredient demand for target at rate.
func (s *Service) AggregateRates(ctx context.Context, target Ingredient, rate float64) ([]AggregateRate, error) {
	var rows []AggregateRate
	err := s.run(ctx, "aggregate_rates", func(ctx context.Context) error {
		return s.store.View(ctx, func(view domain.CatalogView) error {
			var err error
			rows, err = AggregateRates(view, target, rate)
			return err
		})
	})
	return rows, err
}

// ExportCatalog saves the current catalog as a new archive version of name.
func (s *Service) ExportCatalog(ctx context.Context, archive *CatalogArchive, name string) (blob.Info, error) {
	var info blob.Info
	err := s.run(ctx, "export_catalog", func(ctx context.Context) error {
		var err error
		info, err = archive.Save(ctx, name, s.store.ExportState())
		if err == nil {
			s.logger.Info("catalog exported", "key", info.Key, "size_bytes", info.Size)
		}
		return err
	})
	return info, err
}

// ImportCatalog replaces the catalog with the archived version at key.
func (s *Service) ImportCatalog(ctx context.Context, archive *CatalogArchive, key string) (Result, error) {
	var res Result
	err := s.run(ctx, "import_catalog", func(ctx context.Context) error {
		catalog, err := archive.Load(ctx, key)
		if err != nil {
			return err
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.ReplaceCatalog(catalog)
		})
		if err == nil {
			s.logger.Info("catalog imported", "key", key, "recipes", catalog.RecipeCount())
		}
		return err
	})
	return res, err
}

// ImportLatestCatalog imports the newest archived version of name.
func (s *Service) ImportLatestCatalog(ctx context.Context, archive *CatalogArchive, name string) (blob.Info, Result, error) {
	info, err := archive.LatestInfo(ctx, name)
	if err != nil {
		return blob.Info{}, Result{}, err
	}
	res, err := s.ImportCatalog(ctx, archive, info.Key)
	return info, res, err
}
