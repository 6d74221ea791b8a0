// Package app wires the risk engine from configuration. The HTTP server, the MCP server
// and the CLI all build their engine here.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prime-cvd-risk/internal/config"
	"github.com/prime-cvd-risk/internal/database"
	"github.com/prime-cvd-risk/internal/domain"
	"github.com/prime-cvd-risk/internal/service"
	"github.com/prime-cvd-risk/internal/therapystore"
)

// Engine bundles the catalog, the models and the recommendation generator built from one
// immutable configuration.
type Engine struct {
	Config      domain.EngineConfig
	Catalog     *service.TherapyCatalog
	LDL         *service.LDLModel
	Risk        *service.LogisticRiskModel
	Evaluator   *service.RiskDeltaEngine
	Recommender *service.RecommendationGenerator

	logger *logrus.Logger
}

// Assessment pairs a risk result with its recommendations.
type Assessment struct {
	Result          *domain.RiskResult    `json:"result"`
	Recommendations domain.Recommendation `json:"recommendations"`
}

// NewEngine builds the engine over the given catalog entries.
func NewEngine(classes []domain.TherapyClass, cfg domain.EngineConfig, logger *logrus.Logger) (*Engine, error) {
	catalog, err := service.NewTherapyCatalog(classes, logger)
	if err != nil {
		return nil, fmt.Errorf("building therapy catalog: %w", err)
	}

	ldl := service.NewLDLModel(logger, catalog, cfg.LDL)
	risk := service.NewLogisticRiskModel(cfg)

	return &Engine{
		Config:      cfg,
		Catalog:     catalog,
		LDL:         ldl,
		Risk:        risk,
		Evaluator:   service.NewRiskDeltaEngine(logger, catalog, ldl, risk, cfg),
		Recommender: service.NewRecommendationGenerator(catalog, cfg.Recommendation),
		logger:      logger,
	}, nil
}

// Build loads the catalog named by cfg.Catalog and builds the engine.
func Build(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*Engine, error) {
	classes, err := LoadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewEngine(classes, cfg.Engine, logger)
}

// Assess evaluates profile under selection and generates the recommendations.
func (e *Engine) Assess(profile domain.PatientProfile, selection domain.TherapySelection) (*Assessment, error) {
	result, err := e.Evaluator.Evaluate(profile, selection)
	if err != nil {
		return nil, err
	}
	return &Assessment{
		Result:          result,
		Recommendations: e.Recommender.Generate(result),
	}, nil
}

// LoadCatalog returns the therapy classes from the configured source. The store source
// seeds the built-in classes into an empty store.
func LoadCatalog(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) ([]domain.TherapyClass, error) {
	source := cfg.Catalog.Source
	logger.WithField("source", source).Info("Loading therapy catalog")

	switch source {
	case "", domain.CatalogSourceBuiltin:
		return service.DefaultTherapyClasses(), nil
	case domain.CatalogSourceFile:
		classes, err := therapystore.LoadFile(cfg.Catalog.FilePath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog file: %w", err)
		}
		return classes, nil
	case domain.CatalogSourceStore:
		store, err := OpenStore(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return loadFromStore(ctx, store, logger)
	default:
		return nil, fmt.Errorf("unknown catalog source: %q", source)
	}
}

// LoadLiteCatalog returns the catalog for the standalone MCP server: the catalog file if
// one is configured, otherwise the SQLite catalog in the data directory.
func LoadLiteCatalog(ctx context.Context, cfg *config.LiteConfig, logger *logrus.Logger) ([]domain.TherapyClass, error) {
	if cfg.CatalogFile != "" {
		classes, err := therapystore.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("loading catalog file: %w", err)
		}
		return classes, nil
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := therapystore.NewSQLiteStore(cfg.CatalogDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	defer store.Close()

	return loadFromStore(ctx, store, logger)
}

func loadFromStore(ctx context.Context, store therapystore.Store, logger *logrus.Logger) ([]domain.TherapyClass, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting stored therapies: %w", err)
	}

	if count == 0 {
		imported, _, err := therapystore.Seed(ctx, store, service.DefaultTherapyClasses())
		if err != nil {
			return nil, fmt.Errorf("seeding therapy catalog: %w", err)
		}
		logger.WithField("imported", imported).Info("Seeded empty catalog store with built-in therapies")
	}

	classes, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored therapies: %w", err)
	}
	return classes, nil
}

// OpenStore opens the catalog store for the configured backend. The Postgres store owns
// its pool and releases it on Close.
func OpenStore(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) (therapystore.Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		store, err := therapystore.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite catalog store: %w", err)
		}
		return store, nil
	case "postgres":
		db, err := database.NewConnection(ctx, database.ConfigFromDomain(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to catalog database: %w", err)
		}
		store, err := therapystore.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid database backend: %s", cfg.Backend)
	}
}

// Migrate runs the Postgres catalog migrations up, or down one step.
func Migrate(cfg domain.DatabaseConfig, down bool, logger *logrus.Logger) error {
	if cfg.Backend != "postgres" {
		return fmt.Errorf("migrations apply to the postgres backend only, configured backend is %q", cfg.Backend)
	}

	runner, err := database.NewMigrationRunner(database.ConfigFromDomain(cfg).URL(), cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	if down {
		return runner.Down()
	}
	return runner.Up()
}
