// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/agroreach/storefront/internal/interfaces/http/handlers"
	"github.com/agroreach/storefront/internal/interfaces/http/middleware"
)

// Handlers holds the constructed HTTP handlers
type Handlers struct {
	Auth    *handlers.AuthHandler
	Product *handlers.ProductHandler
	Cart    *handlers.CartHandler
	Order   *handlers.OrderHandler
	Invoice *handlers.InvoiceHandler
	Billing *handlers.BillingHandler
}

// SetupRoutes registers every API route under rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers, validator middleware.TokenValidator) {
	requireAuth := middleware.AuthMiddleware(validator)

	SetupAuthRoutes(rg, h.Auth, requireAuth)
	SetupProductRoutes(rg, h.Product)
	SetupCartRoutes(rg, h.Cart, requireAuth)
	SetupOrderRoutes(rg, h.Order, h.Invoice, requireAuth)
	SetupUserRoutes(rg, h.Billing, requireAuth)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler, requireAuth gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", requireAuth, h.Me)
	}
}

// SetupProductRoutes sets up the public catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h *handlers.ProductHandler) {
	products := rg.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/:id", h.GetProduct)
	}
}

// SetupCartRoutes sets up cart routes
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler, requireAuth gin.HandlerFunc) {
	cart := rg.Group("/cart")
	cart.Use(requireAuth)
	{
		cart.GET("", h.GetCart)
		cart.POST("/add", h.AddItem)
		cart.PATCH("/item", h.UpdateItem)
		cart.DELETE("/item", h.RemoveItem)
		cart.DELETE("", h.ClearCart)
	}
}

// SetupOrderRoutes sets up order placement, history and invoice routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler, invoice *handlers.InvoiceHandler, requireAuth gin.HandlerFunc) {
	orders := rg.Group("/orders")
	orders.Use(requireAuth)
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/:id/invoice", invoice.GenerateInvoice)
		orders.GET("/:id/invoice/layout", invoice.GetInvoiceLayout)
	}
}

// SetupUserRoutes sets up user related routes
func SetupUserRoutes(rg *gin.RouterGroup, h *handlers.BillingHandler, requireAuth gin.HandlerFunc) {
	users := rg.Group("/users")
	users.Use(requireAuth)
	{
		users.GET("/billing", h.GetBilling)
		users.PUT("/billing", h.SaveBilling)
	}
}
