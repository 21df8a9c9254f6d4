// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound    = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// CartItem is one persisted line of a user's cart. A line exists only while
// its quantity is at least 1; lines are hard deleted.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"userId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product;index" json:"productId"`
	Quantity  int       `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// ProductSummary is the product view embedded in each cart line
type ProductSummary struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// Line is a hydrated cart line as returned to clients
type Line struct {
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
}

// Cart is the authoritative cart of a user
type Cart struct {
	UserID    uint      `json:"userId"`
	Items     []Line    `json:"items"`
	Totals    Totals    `json:"totals"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Totals represents calculated cart totals in the base currency
type Totals struct {
	ItemCount     int             `json:"itemCount"`
	TotalQuantity int             `json:"totalQuantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

func calculateTotals(lines []Line) Totals {
	totals := Totals{ItemCount: len(lines), Subtotal: decimal.Zero}
	for _, l := range lines {
		totals.TotalQuantity += l.Quantity
		totals.Subtotal = totals.Subtotal.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return totals
}
