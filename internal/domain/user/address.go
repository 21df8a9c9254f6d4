// internal/domain/user/address.go
package user

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Address is the postal and contact information used for both invoicing and
// delivery. Orders embed a copy of it as their shipping address.
type Address struct {
	FirstName     string `gorm:"size:100" json:"firstName" label:"First Name" validate:"required"`
	LastName      string `gorm:"size:100" json:"lastName" label:"Last Name"`
	CompanyName   string `gorm:"size:150" json:"companyName,omitempty" label:"Company Name"`
	StreetAddress string `gorm:"size:255" json:"streetAddress" label:"Street Address" validate:"required"`
	Country       string `gorm:"size:100" json:"country" label:"Country" validate:"required"`
	State         string `gorm:"size:100" json:"state" label:"State" validate:"required"`
	ZipCode       string `gorm:"size:20" json:"zipCode" label:"Zip Code" validate:"required"`
	Email         string `gorm:"size:255" json:"email" label:"Email Address" validate:"required"`
	Phone         string `gorm:"size:30" json:"phone" label:"Phone Number" validate:"required"`
}

// ErrInvalidEmail is returned when a saved address carries a malformed email
var ErrInvalidEmail = errors.New("email address is not valid")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func addressValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if label := fld.Tag.Get("label"); label != "" {
				return label
			}
			return fld.Name
		})
	})
	return validate
}

// Normalize returns a copy with surrounding whitespace removed from every field
func (a Address) Normalize() Address {
	return Address{
		FirstName:     strings.TrimSpace(a.FirstName),
		LastName:      strings.TrimSpace(a.LastName),
		CompanyName:   strings.TrimSpace(a.CompanyName),
		StreetAddress: strings.TrimSpace(a.StreetAddress),
		Country:       strings.TrimSpace(a.Country),
		State:         strings.TrimSpace(a.State),
		ZipCode:       strings.TrimSpace(a.ZipCode),
		Email:         strings.TrimSpace(a.Email),
		Phone:         strings.TrimSpace(a.Phone),
	}
}

// MissingFields returns the display labels of every required field that is
// empty, in declaration order. A blank-only value counts as empty.
func (a Address) MissingFields() []string {
	n := a.Normalize()
	err := addressValidator().Struct(n)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	return missing
}

// IsComplete reports whether the address satisfies the order precondition
func (a Address) IsComplete() bool {
	return len(a.MissingFields()) == 0
}

// CheckEmail validates the email format when one is present
func (a Address) CheckEmail() error {
	email := strings.TrimSpace(a.Email)
	if email == "" {
		return nil
	}
	if err := addressValidator().Var(email, "email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
