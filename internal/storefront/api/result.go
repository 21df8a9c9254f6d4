package api

import (
	"errors"

	"github.com/agroreach/storefront/internal/domain/order"
)

// OrderResult is the decoded outcome of an order submission: Placed,
// Rejected or Unreachable.
type OrderResult interface {
	orderResult()
}

// Placed carries the stored order. Replayed is set when the backend
// recognised the idempotency key and returned the original order.
type Placed struct {
	Order    *order.Order
	Replayed bool
}

// Rejected is a response from the backend refusing the order
type Rejected struct {
	StatusCode int
	Message    string
	Fields     []order.FieldError
}

// Unreachable means no usable response arrived
type Unreachable struct {
	Message string
	Err     error
}

func (Placed) orderResult()      {}
func (Rejected) orderResult()    {}
func (Unreachable) orderResult() {}

// Alert is the text shown to the customer for a rejection
func (r Rejected) Alert() string {
	if len(r.Fields) == 0 {
		return r.Message
	}
	msg := r.Message
	for _, f := range r.Fields {
		msg += "\n- " + f.Message
	}
	return msg
}

func orderResultFromError(err error) OrderResult {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Unreachable() {
		msg := "Could not reach the store. Please check your connection and try again."
		return Unreachable{Message: msg, Err: err}
	}
	return Rejected{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
		Fields:     apiErr.Fields,
	}
}
