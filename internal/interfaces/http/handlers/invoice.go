// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/pkg/pdf"
)

// InvoiceRenderer lays out and renders invoices
type InvoiceRenderer interface {
	Layout(o *order.Order) (pdf.Invoice, []pdf.Page)
	GenerateInvoice(o *order.Order) (*bytes.Buffer, error)
}

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orderService OrderService
	renderer     InvoiceRenderer
	logger       *logrus.Entry
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService OrderService, renderer InvoiceRenderer, logger *logrus.Entry) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		renderer:     renderer,
		logger:       logger,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	pdfBuffer, err := h.renderer.GenerateInvoice(o)
	if err != nil {
		h.logger.WithError(err).WithField("order_number", o.OrderNumber).Error("invoice rendering failed")
		respondError(c, http.StatusInternalServerError, "Failed to generate invoice")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", o.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

// GetInvoiceLayout handles GET /orders/:id/invoice/layout
func (h *InvoiceHandler) GetInvoiceLayout(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	invoice, pages := h.renderer.Layout(o)
	respondOK(c, http.StatusOK, "", gin.H{
		"invoice": invoice,
		"pages":   pages,
	})
}

func (h *InvoiceHandler) loadOrder(c *gin.Context) (*order.Order, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	o, err := h.orderService.GetUserOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondError(c, http.StatusNotFound, "Order not found")
			return nil, false
		}
		h.logger.WithError(err).Error("order lookup failed")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve order")
		return nil, false
	}
	return o, true
}
