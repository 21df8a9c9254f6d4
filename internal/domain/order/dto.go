// internal/domain/order/dto.go
package order

import (
	"github.com/shopspring/decimal"

	"github.com/agroreach/storefront/internal/domain/user"
)

// ItemRequest is one snapshot line sent by the client. Price is the unit
// price in the order currency.
type ItemRequest struct {
	Product  uint            `json:"product"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// CreateOrderRequest is the order submission payload
type CreateOrderRequest struct {
	ShippingAddress user.Address    `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Items           []ItemRequest   `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	IdempotencyKey  string          `json:"idempotencyKey,omitempty"`
}

// ListRequest represents order history query parameters
type ListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=10"`
}

// ListResponse is a page of a user's orders
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func (r *CreateOrderRequest) pricedLines() []PricedLine {
	lines := make([]PricedLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, PricedLine{UnitPrice: item.Price, Quantity: item.Quantity})
	}
	return lines
}
