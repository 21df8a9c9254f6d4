// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agroreach/storefront/internal/domain/user"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentMethod is how the customer pays for an order
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CashOnDelivery"
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentAmazonPay      PaymentMethod = "AmazonPay"
)

// Valid reports whether m is one of the accepted payment methods
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentPayPal, PaymentAmazonPay:
		return true
	}
	return false
}

// Order is a placed order. Items are a snapshot of the cart at submission
// and amounts are in Currency.
type Order struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrderNumber    string        `gorm:"uniqueIndex;not null;size:64" json:"orderNumber"`
	UserID         uint          `gorm:"not null;index;uniqueIndex:idx_orders_user_idempotency" json:"userId"`
	IdempotencyKey string        `gorm:"not null;size:64;uniqueIndex:idx_orders_user_idempotency" json:"idempotencyKey"`
	Status         OrderStatus   `gorm:"not null;size:20;default:'pending'" json:"status"`
	PaymentMethod  PaymentMethod `gorm:"not null;size:20" json:"paymentMethod"`

	ShippingAddress user.Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`

	Subtotal decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"subtotal"`
	Shipping decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"shipping"`
	Tax      decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"tax"`
	Total    decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"total"`
	Currency string          `gorm:"size:3;not null;default:'USD'" json:"currency"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"statusHistory,omitempty"`
}

// OrderItem is one frozen line of an order
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"orderId"`
	ProductID uint            `gorm:"not null;index" json:"product"`
	Name      string          `gorm:"not null;size:255" json:"name"`
	Image     string          `gorm:"size:500" json:"image"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	LineTotal decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"lineTotal"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"orderId"`
	Status    OrderStatus `gorm:"not null;size:20" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// AddStatusHistory appends a status change to the order
func (o *Order) AddStatusHistory(status OrderStatus, comment string, createdBy uint) {
	o.StatusHistory = append(o.StatusHistory, OrderStatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
	})
}

// ItemCount returns the number of units across all lines
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// generateOrderNumber formats ORD-YYYYMMDD-XXXXX from the creation date and row id
func generateOrderNumber(createdAt time.Time, orderID uint) string {
	return fmt.Sprintf("ORD-%s-%05d", createdAt.Format("20060102"), orderID)
}
