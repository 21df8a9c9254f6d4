// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressService manages the saved billing address of each user
type AddressService struct {
	db *gorm.DB
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// GetBillingAddress returns the saved address, or an empty one when none is stored
func (s *AddressService) GetBillingAddress(ctx context.Context, userID uint) (*Address, error) {
	var profile BillingProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Address{}, nil
		}
		return nil, fmt.Errorf("failed to retrieve billing address: %w", err)
	}

	return &profile.Address, nil
}

// SaveBillingAddress stores addr as the user's billing address. Partially
// filled addresses are accepted; completeness is checked at checkout.
func (s *AddressService) SaveBillingAddress(ctx context.Context, userID uint, addr Address) (*Address, error) {
	addr = addr.Normalize()
	if err := addr.CheckEmail(); err != nil {
		return nil, err
	}

	profile := BillingProfile{
		UserID:  userID,
		Address: addr,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save billing address: %w", err)
	}

	return &profile.Address, nil
}
