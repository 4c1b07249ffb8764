package persistence

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the engine's schema.
// One connection serializes transactions the way row locks would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX idx_drawer_one_open ON drawer_sessions (branch_id, operator_id) WHERE status = 'OPEN'`,
	).Error)
	return db
}

// newMockDB returns a GORM handle on sqlmock speaking the PostgreSQL dialect
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedStock(t *testing.T, db *gorm.DB, branchID uuid.UUID, name string, onHand string) *inventory.ProductBranchStock {
	t.Helper()
	stock, err := inventory.NewProductBranchStock(uuid.New(), branchID, name, dec(onHand), dec("50"))
	require.NoError(t, err)
	require.NoError(t, NewGormStockRepository(db).Save(t.Context(), stock))
	return stock
}

func newStockAggregate(t *testing.T) *inventory.ProductBranchStock {
	t.Helper()
	stock, err := inventory.NewProductBranchStock(uuid.New(), uuid.New(), "Detergente", dec("8"), dec("120"))
	require.NoError(t, err)
	return stock
}
