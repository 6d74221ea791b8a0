// Package therapystore persists the therapy catalog. Only catalog entries are stored;
// patient covariates and evaluation results never reach a store.
package therapystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prime-cvd-risk/internal/domain"
)

// Store defines the interface for therapy catalog storage operations.
type Store interface {
	// Save validates and stores a therapy class, replacing any entry with the same ID.
	Save(ctx context.Context, class *domain.TherapyClass) error

	// Get retrieves a therapy class by ID. It returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.TherapyClass, error)

	// List returns every stored therapy class ordered by ID.
	List(ctx context.Context) ([]domain.TherapyClass, error)

	// Count returns the number of stored therapy classes.
	Count(ctx context.Context) (int64, error)

	// Delete removes a therapy class by ID. It returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// ExportJSON writes the whole catalog to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON reads a catalog export and stores entries not already present.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// CatalogExport represents the JSON and YAML export format.
type CatalogExport struct {
	Version    string                `json:"version" yaml:"version"`
	ExportedAt time.Time             `json:"exported_at" yaml:"exported_at"`
	Count      int                   `json:"count" yaml:"count"`
	Therapies  []domain.TherapyClass `json:"therapies" yaml:"therapies"`
}

// ExportVersion is the current catalog export format version.
const ExportVersion = "1.0"

// NewCatalogExport wraps classes in an export envelope.
func NewCatalogExport(classes []domain.TherapyClass) *CatalogExport {
	return &CatalogExport{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(classes),
		Therapies:  classes,
	}
}

func exportJSON(ctx context.Context, s Store, writer io.Writer) error {
	all, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list therapies: %w", err)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewCatalogExport(all))
}

func importJSON(ctx context.Context, s Store, reader io.Reader) (imported int, skipped int, err error) {
	var export CatalogExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return Seed(ctx, s, export.Therapies)
}

// Seed stores every class not already present in s.
func Seed(ctx context.Context, s Store, classes []domain.TherapyClass) (imported int, skipped int, err error) {
	for i := range classes {
		class := classes[i]

		// Check if exists
		_, err := s.Get(ctx, class.ID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		// Import
		if err := s.Save(ctx, &class); err != nil {
			return imported, skipped, fmt.Errorf("failed to save %s: %w", class.ID, err)
		}
		imported++
	}

	return imported, skipped, nil
}
