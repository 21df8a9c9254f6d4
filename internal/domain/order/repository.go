// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists orders
type Repository interface {
	FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error)
	Create(ctx context.Context, order *Order) error
	GetByUser(ctx context.Context, userID, orderID uint) (*Order, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]Order, int64, error)
}

// GormRepository is the postgres-backed Repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates an order repository over db
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// FindByIdempotencyKey returns the order a user already placed with key
func (r *GormRepository) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	return &order, nil
}

// Create stores the order, its items and its status history in one transaction
// and assigns the order number.
func (r *GormRepository) Create(ctx context.Context, order *Order) error {
	tx := r.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	items := order.Items
	history := order.StatusHistory
	order.Items = nil
	order.StatusHistory = nil
	defer func() {
		order.Items = items
		order.StatusHistory = history
	}()

	// placeholder keeps the unique index satisfied until the id is known
	order.OrderNumber = "PENDING-" + uuid.NewString()

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateOrderKey
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	order.OrderNumber = generateOrderNumber(createdAt, order.ID)
	if err := tx.Model(order).Update("order_number", order.OrderNumber).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update order number: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create order items: %w", err)
		}
	}

	for i := range history {
		history[i].OrderID = order.ID
	}
	if len(history) > 0 {
		if err := tx.Create(&history).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create status history: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit order transaction: %w", err)
	}
	return nil
}

// GetByUser returns one of the user's orders with its items
func (r *GormRepository) GetByUser(ctx context.Context, userID, orderID uint) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// ListByUser returns a page of the user's orders, newest first
func (r *GormRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]Order, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	if err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, total, nil
}
