package products

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{"id", "owner_id", "name", "price", "stock", "barcode", "created_at", "updated_at"}

func newMockPGStorage(t *testing.T) (*PGStorage, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewPGStorage(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestPGStorage_Set(t *testing.T) {
	repo, mock := newMockPGStorage(t)
	now := time.Now()
	code := "789"

	mock.ExpectExec(`INSERT INTO products .* ON CONFLICT \(id\) DO UPDATE SET name = EXCLUDED.name`).
		WithArgs("p-1", "owner-1", "Capa", sqlmock.AnyArg(), 3, sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Set(context.Background(), &Product{ID: "p-1", OwnerID: "owner-1", Name: "Capa", Price: decimal.NewFromInt(10), Stock: 3, Barcode: &code, CreatedAt: now, UpdatedAt: now})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStorage_Read(t *testing.T) {
	repo, mock := newMockPGStorage(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("p-1", "owner-1").
		WillReturnRows(sqlmock.NewRows(productRowColumns).AddRow("p-1", "owner-1", "Capa", "39.90", 2, nil, now, now))
	mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("p-2", "owner-1").
		WillReturnError(sql.ErrNoRows)

	p, err := repo.Read(context.Background(), "owner-1", "p-1")
	require.NoError(t, err)
	assert.Nil(t, p.Barcode)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("39.90")))

	_, err = repo.Read(context.Background(), "owner-1", "p-2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStorage_List(t *testing.T) {
	repo, mock := newMockPGStorage(t)

	mock.ExpectQuery(`SELECT .* FROM products WHERE owner_id = \$1 AND name ILIKE \$2 ORDER BY name ASC`).
		WithArgs("owner-1", `%50\%%`).
		WillReturnRows(sqlmock.NewRows(productRowColumns))
	mock.ExpectQuery(`SELECT .* FROM products WHERE owner_id = \$1 ORDER BY name ASC`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	found, err := repo.List(context.Background(), "owner-1", "50%")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = repo.List(context.Background(), "owner-1", "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStorage_DeleteAndClaim(t *testing.T) {
	repo, mock := newMockPGStorage(t)

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("p-1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE products SET owner_id = \$1`).
		WithArgs("owner-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.ErrorIs(t, repo.Delete(context.Background(), "owner-1", "p-1"), ErrNotFound)
	n, err := repo.ClaimUnowned(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
