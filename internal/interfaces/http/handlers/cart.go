// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/cart"
	"github.com/agroreach/storefront/internal/domain/product"
)

// CartService is the server cart resource
type CartService interface {
	GetCart(ctx context.Context, userID uint) (*cart.Cart, error)
	AddItem(ctx context.Context, userID, productID uint, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uint) error
	ClearCart(ctx context.Context, userID uint) error
}

// CartItemRequest is the body of add and update calls
type CartItemRequest struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// RemoveItemRequest is the body of a line removal
type RemoveItemRequest struct {
	ProductID uint `json:"productId" binding:"required"`
}

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService CartService
	logger      *logrus.Entry
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService CartService, logger *logrus.Entry) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	userCart, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "Failed to retrieve cart")
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"cart": userCart})
}

// AddItem handles POST /cart/add
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.cartService.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity); err != nil {
		h.fail(c, err, "Failed to add item to cart")
		return
	}

	respondOK(c, http.StatusOK, "Item added to cart", nil)
}

// UpdateItem handles PATCH /cart/item. A quantity of zero or less removes the line.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	if err := h.cartService.UpdateQuantity(c.Request.Context(), userID, req.ProductID, req.Quantity); err != nil {
		h.fail(c, err, "Failed to update cart item")
		return
	}

	respondOK(c, http.StatusOK, "Cart item updated", nil)
}

// RemoveItem handles DELETE /cart/item
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), userID, req.ProductID); err != nil {
		h.fail(c, err, "Failed to remove cart item")
		return
	}

	respondOK(c, http.StatusOK, "Item removed from cart", nil)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		h.fail(c, err, "Failed to clear cart")
		return
	}

	respondOK(c, http.StatusOK, "Cart cleared", nil)
}

func (h *CartHandler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, product.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error(fallback)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
