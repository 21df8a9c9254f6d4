// internal/domain/product/entity.go
package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product does not exist or is not for sale
var ErrProductNotFound = errors.New("product not found")

// Product represents a catalog entry. Price is in the base currency.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SKU         string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Slug        string          `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"size:100;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Image       string          `gorm:"size:500" json:"image"`
	Stock       int             `gorm:"default:0" json:"stock"`
	IsActive    bool            `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName overrides the table name for Product
func (Product) TableName() string { return "products" }

// IsPurchasable reports whether the product can be put in a cart
func (p *Product) IsPurchasable() bool {
	return p.IsActive && p.Price.IsPositive()
}
