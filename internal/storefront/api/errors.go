package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agroreach/storefront/internal/domain/order"
)

// ErrUnavailable is returned while the circuit breaker is open
var ErrUnavailable = errors.New("storefront api temporarily unavailable")

// Error is a failed backend call. StatusCode is 0 when the request never
// reached the backend.
type Error struct {
	StatusCode int
	Message    string
	Fields     []order.FieldError
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Message, strings.Join(msgs, "; "), e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the request failed before a response arrived
func (e *Error) Unreachable() bool {
	return e.StatusCode == 0
}

// IsStatus reports whether err is an *Error with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
