// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/product"
)

// ProductService is the catalog read side
type ProductService interface {
	GetProducts(ctx context.Context, req *product.ListRequest) (*product.ListResponse, error)
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
}

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	productService ProductService
	logger         *logrus.Entry
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService ProductService, logger *logrus.Entry) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	resp, err := h.productService.GetProducts(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Error("product list failed")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	respondOK(c, http.StatusOK, "", resp)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.WithError(err).Error("product lookup failed")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"product": p})
}
