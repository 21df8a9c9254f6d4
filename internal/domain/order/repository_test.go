package order

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*GormRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return NewGormRepository(db), mock
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2024, 11, 2, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20241102-00042", generateOrderNumber(at, 42))
	assert.Equal(t, "ORD-20241102-123456", generateOrderNumber(at, 123456))
}

func TestGormRepository_Create(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, now))
	mock.ExpectExec(`UPDATE "orders" SET "order_number"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "order_status_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	order := &Order{
		UserID:         3,
		IdempotencyKey: "key-1",
		PaymentMethod:  PaymentPayPal,
		Currency:       "USD",
		Items:          []OrderItem{{ProductID: 7, Name: "Organic Rice", UnitPrice: dec("10"), Quantity: 2, LineTotal: dec("20")}},
	}
	order.AddStatusHistory(OrderStatusPending, "Order created", 3)

	require.NoError(t, repo.Create(context.Background(), order))
	assert.Equal(t, "ORD-20240305-00012", order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, uint(12), order.Items[0].OrderID)
	assert.Equal(t, uint(12), order.StatusHistory[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_Create_DuplicateKey(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &Order{UserID: 3, IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, ErrDuplicateOrderKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_FindByIdempotencyKey_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByIdempotencyKey(context.Background(), 3, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGormRepository_GetByUser(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "user_id", "currency"}).
			AddRow(12, "ORD-20240305-00012", 3, "USD"))
	mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "quantity"}).
			AddRow(1, 12, 7, "Organic Rice", 2))
	mock.ExpectQuery(`SELECT \* FROM "order_status_history" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "status"}).
			AddRow(1, 12, "pending"))

	order, err := repo.GetByUser(context.Background(), 3, 12)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240305-00012", order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	require.Len(t, order.StatusHistory, 1)
}
