package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockSupplierRepository creates a GormSupplierRepository with a mocked SQL connection
func newMockSupplierRepository(t *testing.T) (*GormSupplierRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSupplierRepository(gormDB), mock, mockDB
}

var supplierColumns = []string{"id", "tenant_id", "version", "created_at", "updated_at", "name", "contact_name", "email", "phone", "address", "active"}

func TestGormSupplierRepository_FindByID(t *testing.T) {
	t.Run("finds existing supplier", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplierID := uuid.New()
		tenantID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(supplierColumns).
			AddRow(supplierID, tenantID, 3, now, now, "Fresh Farms", "Ana", "ana@farms.test", "0812", "Jl. Pasar 1", true)

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE tenant_id = \$1 AND id = \$2 ORDER BY "suppliers"."id" LIMIT \$3`).
			WithArgs(tenantID, supplierID, 1).
			WillReturnRows(rows)

		supplier, err := repo.FindByID(context.Background(), tenantID, supplierID)
		require.NoError(t, err)
		assert.Equal(t, "Fresh Farms", supplier.Name)
		assert.Equal(t, 3, supplier.Version)
		assert.False(t, supplier.IsNew())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "suppliers"`).
			WillReturnRows(sqlmock.NewRows(supplierColumns))

		_, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_FindAll(t *testing.T) {
	t.Run("counts then loads a page", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "suppliers" WHERE tenant_id = \$1`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE tenant_id = \$1 ORDER BY name ASC LIMIT \$2`).
			WillReturnRows(sqlmock.NewRows(supplierColumns).
				AddRow(uuid.New(), tenantID, 1, now, now, "Alpha", "", "", "", "", true).
				AddRow(uuid.New(), tenantID, 1, now, now, "Beta", "", "", "", "", false))

		filter := shared.DefaultFilter()
		filter.OrderBy = "name"
		filter.OrderDir = "asc"
		suppliers, total, err := repo.FindAll(context.Background(), tenantID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, suppliers, 2)
		assert.Equal(t, "Alpha", suppliers[0].Name)
		assert.False(t, suppliers[1].Active)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the page query when nothing matches", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "suppliers"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		suppliers, total, err := repo.FindAll(context.Background(), uuid.New(), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, suppliers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_Save(t *testing.T) {
	t.Run("inserts a new supplier", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplier, err := purchasing.NewSupplier(uuid.New(), purchasing.SupplierDetails{Name: "Fresh Farms"})
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "suppliers"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Save(context.Background(), supplier))
		assert.False(t, supplier.IsNew())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("updates guarded by the loaded version", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplier := persistedSupplier(t)
		require.NoError(t, supplier.Update(purchasing.SupplierDetails{Name: "Fresh Farms Ltd"}))

		mock.ExpectExec(`UPDATE "suppliers" SET .* WHERE tenant_id = \$\d+ AND version = \$\d+ AND "suppliers"."id" = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(context.Background(), supplier))
		assert.Equal(t, 2, supplier.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when no row matches the version", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplier := persistedSupplier(t)
		require.NoError(t, supplier.Update(purchasing.SupplierDetails{Name: "Fresh Farms Ltd"}))

		mock.ExpectExec(`UPDATE "suppliers"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(context.Background(), supplier)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.True(t, shared.IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func persistedSupplier(t *testing.T) *purchasing.Supplier {
	t.Helper()
	supplier, err := purchasing.NewSupplier(uuid.New(), purchasing.SupplierDetails{Name: "Fresh Farms"})
	require.NoError(t, err)
	supplier.MarkPersisted()
	return supplier
}
