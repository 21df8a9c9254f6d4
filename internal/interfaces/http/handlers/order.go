// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/order"
)

// OrderService is the server order resource
type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, req *order.CreateOrderRequest) (*order.Order, bool, error)
	GetUserOrder(ctx context.Context, userID, orderID uint) (*order.Order, error)
	GetUserOrders(ctx context.Context, userID uint, req *order.ListRequest) (*order.ListResponse, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService OrderService
	logger       *logrus.Entry
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService OrderService, logger *logrus.Entry) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// CreateOrder handles POST /orders. A replayed idempotency key answers 200
// with the original order instead of 201.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}
	if key := c.GetHeader("Idempotency-Key"); req.IdempotencyKey == "" && key != "" {
		req.IdempotencyKey = key
	}

	placed, created, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		var verrs order.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"message": "Order validation failed",
				"errors":  verrs,
			})
		case errors.Is(err, order.ErrOrderInProgress):
			respondError(c, http.StatusConflict, err.Error())
		default:
			h.logger.WithError(err).WithField("user_id", userID).Error("order creation failed")
			respondError(c, http.StatusInternalServerError, "Failed to place order")
		}
		return
	}

	if !created {
		respondOK(c, http.StatusOK, "Order already placed", gin.H{"order": placed})
		return
	}
	respondOK(c, http.StatusCreated, "Order placed successfully", gin.H{"order": placed})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	resp, err := h.orderService.GetUserOrders(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.WithError(err).Error("order list failed")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	respondOK(c, http.StatusOK, "", resp)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetUserOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.WithError(err).Error("order lookup failed")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"order": o})
}
