// internal/interfaces/http/handlers/billing.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/user"
)

// AddressService stores the billing address of a user
type AddressService interface {
	GetBillingAddress(ctx context.Context, userID uint) (*user.Address, error)
	SaveBillingAddress(ctx context.Context, userID uint, addr user.Address) (*user.Address, error)
}

// BillingHandler handles the billing profile endpoints
type BillingHandler struct {
	addressService AddressService
	logger         *logrus.Entry
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(addressService AddressService, logger *logrus.Entry) *BillingHandler {
	return &BillingHandler{
		addressService: addressService,
		logger:         logger,
	}
}

// GetBilling handles GET /users/billing
func (h *BillingHandler) GetBilling(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	addr, err := h.addressService.GetBillingAddress(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("billing lookup failed")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve billing address")
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"address":       addr,
		"missingFields": addr.MissingFields(),
	})
}

// SaveBilling handles PUT /users/billing
func (h *BillingHandler) SaveBilling(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var addr user.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	saved, err := h.addressService.SaveBillingAddress(c.Request.Context(), userID, addr)
	if err != nil {
		if errors.Is(err, user.ErrInvalidEmail) {
			respondError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.WithError(err).Error("billing save failed")
		respondError(c, http.StatusInternalServerError, "Failed to save billing address")
		return
	}

	respondOK(c, http.StatusOK, "Billing address saved", gin.H{
		"address":       saved,
		"missingFields": saved.MissingFields(),
	})
}
