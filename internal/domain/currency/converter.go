// internal/domain/currency/converter.go
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Code is an ISO 4217 currency code supported by the storefront
type Code string

const (
	USD Code = "USD"
	INR Code = "INR"

	// Base is the currency product prices are stored in
	Base = USD
)

var symbols = map[Code]string{
	USD: "$",
	INR: "₹",
}

// ParseCode normalizes a currency code, falling back to Base for unknown values
func ParseCode(s string) Code {
	code := Code(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := symbols[code]; ok {
		return code
	}
	return Base
}

// Symbol returns the display symbol for a currency code
func (c Code) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return symbols[Base]
}

// Converter maps base-currency amounts into a display currency.
// The zero value converts nothing and shows base prices.
type Converter struct {
	target Code
	rate   decimal.Decimal
}

// NewConverter builds a converter into target using rate units of target per
// unit of Base. Converting to Base itself always uses a rate of 1.
func NewConverter(target Code, rate decimal.Decimal) Converter {
	if target == Base {
		return Converter{target: Base, rate: decimal.NewFromInt(1)}
	}
	return Converter{target: target, rate: rate}
}

// Code returns the display currency. Without a usable rate prices stay in
// Base, so Base is reported.
func (c Converter) Code() Code {
	if c.target == "" || !c.Usable() {
		return Base
	}
	return c.target
}

// Symbol returns "$" or "₹" for the currency Code reports
func (c Converter) Symbol() string {
	return c.Code().Symbol()
}

// Usable reports whether the converter has a positive rate
func (c Converter) Usable() bool {
	return c.rate.IsPositive()
}

// Rate returns the effective multiplier, 1 when the configured rate is unusable
func (c Converter) Rate() decimal.Decimal {
	if !c.Usable() {
		return decimal.NewFromInt(1)
	}
	return c.rate
}

// Convert returns amount in the display currency. A zero, negative or unset
// rate returns amount unchanged.
func (c Converter) Convert(amount decimal.Decimal) decimal.Decimal {
	if !c.Usable() {
		return amount
	}
	return amount.Mul(c.rate)
}

// Inverse returns a converter applying 1/rate, mapping display amounts back to Base
func (c Converter) Inverse() Converter {
	if !c.Usable() {
		return Converter{target: Base}
	}
	return Converter{target: Base, rate: decimal.NewFromInt(1).Div(c.rate)}
}

// Format renders amount with the display symbol and two decimals. Conversion
// is not applied.
func (c Converter) Format(amount decimal.Decimal) string {
	return fmt.Sprintf("%s%s", c.Symbol(), amount.StringFixed(2))
}
