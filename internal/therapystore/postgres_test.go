package therapystore

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime-cvd-risk/internal/domain"
)

var therapyColumns = []string{
	"id", "name", "category", "reduction", "combination",
	"max_combined", "exclusive_group", "description", "citation",
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectPing()
	store, err := NewPostgresStore(context.Background(), mock)
	require.NoError(t, err)
	return store, mock
}

func TestNewPostgresStore_RequiresPool(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewPostgresStore_PingFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	_, err = NewPostgresStore(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	class := testClasses()[0]
	mock.ExpectExec("INSERT INTO therapy_classes").
		WithArgs(class.ID, class.Name, "STATIN", 0.5, "MULTIPLICATIVE", 0.0, "statin",
			class.Description, class.Reference, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), &class))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRejectsInvalidClass(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	class := domain.TherapyClass{ID: "bad", Name: "Bad", Category: "VITAMIN", Combination: domain.MULTIPLICATIVE}
	err := store.Save(context.Background(), &class)
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveError(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	class := testClasses()[1]
	mock.ExpectExec("INSERT INTO therapy_classes").
		WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), &class)
	assert.ErrorContains(t, err, "connection reset")
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM therapy_classes WHERE id = \$1`).
		WithArgs("bempedoic_acid").
		WillReturnRows(pgxmock.NewRows(therapyColumns).
			AddRow("bempedoic_acid", "Bempedoic acid", "BEMPEDOIC_ACID", 0.18, "CAPPED", 0.65, "", "", ""))

	got, err := store.Get(context.Background(), "bempedoic_acid")
	require.NoError(t, err)
	assert.Equal(t, testClasses()[2], *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM therapy_classes WHERE id = \$1`).
		WithArgs("niacin").
		WillReturnRows(pgxmock.NewRows(therapyColumns))

	got, err := store.Get(context.Background(), "niacin")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("FROM therapy_classes ORDER BY id").
		WillReturnRows(pgxmock.NewRows(therapyColumns).
			AddRow("ezetimibe", "Ezetimibe", "EZETIMIBE", 0.24, "MULTIPLICATIVE", 0.0, "", "", "").
			AddRow("statin_high", "High-intensity statin", "STATIN", 0.5, "MULTIPLICATIVE", 0.0, "statin", "Atorvastatin 40-80 mg", "ESC/EAS 2019"))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, testClasses()[1], all[0])
	assert.Equal(t, testClasses()[0], all[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM therapy_classes`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(8)))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), count)
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM therapy_classes WHERE id = \$1`).
		WithArgs("ezetimibe").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM therapy_classes WHERE id = \$1`).
		WithArgs("ezetimibe").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ctx := context.Background()
	require.NoError(t, store.Delete(ctx, "ezetimibe"))
	assert.ErrorIs(t, store.Delete(ctx, "ezetimibe"), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SeedSkipsExisting(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	classes := testClasses()[:2]

	// statin_high already stored
	mock.ExpectQuery(`FROM therapy_classes WHERE id = \$1`).
		WithArgs("statin_high").
		WillReturnRows(pgxmock.NewRows(therapyColumns).
			AddRow("statin_high", "High-intensity statin", "STATIN", 0.5, "MULTIPLICATIVE", 0.0, "statin", "", ""))

	// ezetimibe is new
	mock.ExpectQuery(`FROM therapy_classes WHERE id = \$1`).
		WithArgs("ezetimibe").
		WillReturnRows(pgxmock.NewRows(therapyColumns))
	mock.ExpectExec("INSERT INTO therapy_classes").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	imported, skipped, err := Seed(context.Background(), store, classes)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
