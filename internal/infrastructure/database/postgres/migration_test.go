package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agroreach/storefront/internal/domain/product"
	applog "github.com/agroreach/storefront/internal/logger"
)

type recordingCatalog struct {
	created []string
}

func (r *recordingCatalog) CreateProduct(_ context.Context, req *product.CreateRequest) (*product.Product, error) {
	r.created = append(r.created, req.SKU)
	return &product.Product{SKU: req.SKU, Name: req.Name, Price: req.Price}, nil
}

func newMockMigration(t *testing.T) (*Migration, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewMigration(db, applog.Discard()), mock
}

func TestSeedProducts_EmptyCatalog(t *testing.T) {
	m, mock := newMockMigration(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	catalog := &recordingCatalog{}
	require.NoError(t, m.seedProducts(context.Background(), catalog))
	assert.Equal(t, []string{"AGR-SEED-001", "AGR-FERT-002", "AGR-TOOL-003", "AGR-IRRI-004"}, catalog.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedProducts_SkipsExistingCatalog(t *testing.T) {
	m, mock := newMockMigration(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	catalog := &recordingCatalog{}
	require.NoError(t, m.seedProducts(context.Background(), catalog))
	assert.Empty(t, catalog.created)
}

func TestModelsOrder(t *testing.T) {
	names := make([]string, 0)
	for _, model := range Models() {
		if tabler, ok := model.(interface{ TableName() string }); ok {
			names = append(names, tabler.TableName())
		}
	}
	assert.Equal(t, []string{"users", "billing_profiles", "products", "cart_items", "orders", "order_items", "order_status_history"}, names)
}
