package therapystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/prime-cvd-risk/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite catalog store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	// Create schema
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanTherapy scans a row into a TherapyClass.
func scanTherapy(s scanner) (*domain.TherapyClass, error) {
	class := &domain.TherapyClass{}
	var category, combination string

	err := s.Scan(
		&class.ID, &class.Name, &category, &class.Reduction, &combination,
		&class.MaxCombined, &class.ExclusiveGroup, &class.Description, &class.Reference,
	)
	if err != nil {
		return nil, err
	}

	class.Category = domain.TherapyCategory(category)
	class.Combination = domain.CombinationRule(combination)
	return class, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS therapy_classes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		reduction REAL NOT NULL CHECK (reduction >= 0 AND reduction < 1),
		combination TEXT NOT NULL,
		max_combined REAL NOT NULL DEFAULT 0,
		exclusive_group TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		citation TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_therapy_category ON therapy_classes(category);
	CREATE INDEX IF NOT EXISTS idx_therapy_exclusive_group ON therapy_classes(exclusive_group);
	`

	_, err := db.Exec(schema)
	return err
}

const sqliteSelectColumns = `
	SELECT id, name, category, reduction, combination,
		max_combined, exclusive_group, description, citation
	FROM therapy_classes`

// Save validates and stores a therapy class, replacing any entry with the same ID.
func (s *SQLiteStore) Save(ctx context.Context, class *domain.TherapyClass) error {
	if err := class.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO therapy_classes (
			id, name, category, reduction, combination,
			max_combined, exclusive_group, description, citation,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			reduction = excluded.reduction,
			combination = excluded.combination,
			max_combined = excluded.max_combined,
			exclusive_group = excluded.exclusive_group,
			description = excluded.description,
			citation = excluded.citation,
			updated_at = excluded.updated_at
	`,
		class.ID,
		class.Name,
		string(class.Category),
		class.Reduction,
		string(class.Combination),
		class.MaxCombined,
		class.ExclusiveGroup,
		class.Description,
		class.Reference,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save therapy %s: %w", class.ID, err)
	}
	return nil
}

// Get retrieves a therapy class by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.TherapyClass, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelectColumns+" WHERE id = ?", id)

	class, err := scanTherapy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("therapy %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return class, nil
}

// List returns every stored therapy class ordered by ID.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.TherapyClass, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	result := []domain.TherapyClass{}
	for rows.Next() {
		class, err := scanTherapy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, *class)
	}
	return result, rows.Err()
}

// Count returns the number of stored therapy classes.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM therapy_classes").Scan(&count)
	return count, err
}

// Delete removes a therapy class by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM therapy_classes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete therapy %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("therapy %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ExportJSON writes the whole catalog to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportJSON(ctx, s, writer)
}

// ImportJSON reads a catalog export and stores entries not already present.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return importJSON(ctx, s, reader)
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
