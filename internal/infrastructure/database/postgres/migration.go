// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agroreach/storefront/internal/domain/cart"
	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/domain/product"
	"github.com/agroreach/storefront/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: log.WithField("component", "migration"),
	}
}

// Models lists every table in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.BillingProfile{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("running database auto-migrations")

	for _, model := range Models() {
		m.logger.Debugf("migrating model %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates indexes and constraints AutoMigrate cannot express
func (m *Migration) CreateIndexes() error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_active_created ON products(is_active, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_created ON cart_items(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
		"ALTER TABLE order_items DROP CONSTRAINT IF EXISTS chk_order_items_quantity",
		"ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity CHECK (quantity >= 1)",
	}

	failed := 0
	for _, stmt := range statements {
		if err := m.db.Exec(stmt).Error; err != nil {
			m.logger.WithError(err).Warnf("failed to apply %q", stmt)
			failed++
		}
	}

	m.logger.WithFields(logrus.Fields{
		"applied": len(statements) - failed,
		"failed":  failed,
	}).Info("indexes created")
	return nil
}

// ProductCreator adds catalog entries during seeding
type ProductCreator interface {
	CreateProduct(ctx context.Context, req *product.CreateRequest) (*product.Product, error)
}

// SeedInitialData inserts a demo user and catalog for development
func (m *Migration) SeedInitialData(ctx context.Context, catalog ProductCreator) error {
	if err := m.seedDemoUser(); err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}
	if err := m.seedProducts(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	return nil
}

func (m *Migration) seedDemoUser() error {
	var existing user.User
	if err := m.db.Where("email = ?", "farmer@agroreach.test").First(&existing).Error; err == nil {
		m.logger.Debugf("demo user already exists with id %d", existing.ID)
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("harvest2024"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	demo := user.User{
		Email:     "farmer@agroreach.test",
		Password:  string(hashed),
		FirstName: "Demo",
		LastName:  "Farmer",
		IsActive:  true,
	}
	if err := m.db.Create(&demo).Error; err != nil {
		return err
	}

	m.logger.Info("created demo user farmer@agroreach.test")
	return nil
}

var seedCatalog = []product.CreateRequest{
	{SKU: "AGR-SEED-001", Name: "Hybrid Tomato Seeds", Category: "seeds", Price: decimal.RequireFromString("4.50"), Image: "products/tomato-seeds.jpg", Stock: 400},
	{SKU: "AGR-FERT-002", Name: "Organic Vermicompost 5kg", Category: "fertilizers", Price: decimal.RequireFromString("12.00"), Image: "products/vermicompost.jpg", Stock: 120},
	{SKU: "AGR-TOOL-003", Name: "Stainless Pruning Shears", Category: "tools", Price: decimal.RequireFromString("18.75"), Image: "products/shears.jpg", Stock: 60},
	{SKU: "AGR-IRRI-004", Name: "Drip Irrigation Kit", Category: "irrigation", Price: decimal.RequireFromString("49.99"), Image: "products/drip-kit.jpg", Stock: 25},
}

func (m *Migration) seedProducts(ctx context.Context, catalog ProductCreator) error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range seedCatalog {
		if _, err := catalog.CreateProduct(ctx, &seedCatalog[i]); err != nil {
			return err
		}
	}
	m.logger.Infof("seeded %d products", len(seedCatalog))
	return nil
}
