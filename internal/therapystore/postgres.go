package therapystore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prime-cvd-risk/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the store needs. pgxmock pools satisfy it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore creates a new PostgreSQL catalog store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(ctx context.Context, pool PgxPool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

const pgSelectColumns = `
	SELECT id, name, category, reduction, combination,
		max_combined, exclusive_group, description, citation
	FROM therapy_classes`

// Save validates and stores a therapy class, replacing any entry with the same ID.
func (s *PostgresStore) Save(ctx context.Context, class *domain.TherapyClass) error {
	if err := class.Validate(); err != nil {
		return err
	}

	// Use upsert (INSERT ... ON CONFLICT)
	query := `
		INSERT INTO therapy_classes (
			id, name, category, reduction, combination,
			max_combined, exclusive_group, description, citation,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			reduction = EXCLUDED.reduction,
			combination = EXCLUDED.combination,
			max_combined = EXCLUDED.max_combined,
			exclusive_group = EXCLUDED.exclusive_group,
			description = EXCLUDED.description,
			citation = EXCLUDED.citation,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		class.ID,
		class.Name,
		string(class.Category),
		class.Reduction,
		string(class.Combination),
		class.MaxCombined,
		class.ExclusiveGroup,
		class.Description,
		class.Reference,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save therapy %s: %w", class.ID, err)
	}
	return nil
}

// Get retrieves a therapy class by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.TherapyClass, error) {
	class, err := scanPgTherapy(s.pool.QueryRow(ctx, pgSelectColumns+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("therapy %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get therapy %s: %w", id, err)
	}
	return class, nil
}

// List returns every stored therapy class ordered by ID.
func (s *PostgresStore) List(ctx context.Context) ([]domain.TherapyClass, error) {
	rows, err := s.pool.Query(ctx, pgSelectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list therapies: %w", err)
	}
	defer rows.Close()

	result := []domain.TherapyClass{}
	for rows.Next() {
		class, err := scanPgTherapy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, *class)
	}

	return result, rows.Err()
}

func scanPgTherapy(row pgx.Row) (*domain.TherapyClass, error) {
	class := &domain.TherapyClass{}
	var category, combination string

	err := row.Scan(
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

// Count returns the number of stored therapy classes.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM therapy_classes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count therapies: %w", err)
	}
	return count, nil
}

// Delete removes a therapy class by ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM therapy_classes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete therapy %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("therapy %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ExportJSON writes the whole catalog to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportJSON(ctx, s, writer)
}

// ImportJSON reads a catalog export and stores entries not already present.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return importJSON(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
