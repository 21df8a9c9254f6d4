// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/cart"
	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/domain/product"
	"github.com/agroreach/storefront/internal/domain/user"
	"github.com/agroreach/storefront/internal/infrastructure/messaging/kafka"
	"github.com/agroreach/storefront/internal/interfaces/http/handlers"
	"github.com/agroreach/storefront/internal/interfaces/http/middleware"
	"github.com/agroreach/storefront/internal/interfaces/http/routes"
	"github.com/agroreach/storefront/internal/logger"
	"github.com/agroreach/storefront/internal/pkg/auth"
	"github.com/agroreach/storefront/internal/pkg/email"
	"github.com/agroreach/storefront/internal/pkg/pdf"
)

const maxRequestBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	logger      *logrus.Entry
	publisher   *kafka.OrderPublisher
	startedAt   time.Time
}

// NewServer wires services and routes onto a gin engine
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logrus.FieldLogger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		logger:      logger.Component(log, "http"),
		gin:         gin.New(),
		startedAt:   time.Now(),
	}

	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		s.logger.WithError(err).Warn("invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware(log)
	s.setupRoutes(log)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start blocks serving HTTP until the server is stopped
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":        s.config.Server.Port,
		"environment": s.config.App.Environment,
	}).Info("http server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down http server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.WithError(err).Warn("failed to close order publisher")
		}
	}

	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) setupMiddleware(log logrus.FieldLogger) {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(log))
	s.gin.Use(middleware.CORS(s.config.Security))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(s.redisClient, s.config.Security.RateLimitPerMinute, log))
	s.gin.Use(middleware.RequestSizeLimit(maxRequestBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes(log logrus.FieldLogger) {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	jwtManager := auth.NewJWTManager(s.config)
	products := product.NewService(s.db, s.config)

	carts := cart.NewService(
		cart.NewGormRepository(s.db),
		cart.NewRedisCache(s.redisClient, s.config.Redis.CartTTL),
		products,
		logger.Component(log, "cart"),
	)

	orders := order.NewService(
		order.NewGormRepository(s.db),
		products,
		s.redisClient,
		s.config,
		logger.Component(log, "order"),
	)
	if len(s.config.External.Kafka.Brokers) > 0 {
		s.publisher = kafka.NewOrderPublisher(s.config.External.Kafka)
		orders.WithPublisher(s.publisher)
	}
	mailer := email.NewEmailService(
		s.config,
		email.NewSMTPSender(s.config.External.Email),
		logger.Component(log, "email"),
	)
	orders.WithNotifier(mailer)

	h := routes.Handlers{
		Auth:    handlers.NewAuthHandler(user.NewService(s.db, s.config), logger.Component(log, "auth")),
		Product: handlers.NewProductHandler(products, logger.Component(log, "product")),
		Cart:    handlers.NewCartHandler(carts, logger.Component(log, "cart")),
		Order:   handlers.NewOrderHandler(orders, logger.Component(log, "order")),
		Invoice: handlers.NewInvoiceHandler(orders, pdf.NewService(s.config), logger.Component(log, "invoice")),
		Billing: handlers.NewBillingHandler(user.NewAddressService(s.db), logger.Component(log, "billing")),
	}

	routes.SetupRoutes(s.gin.Group("/api/v1"), h, jwtManager)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"name":        s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
			})
		})
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		s.unhealthy(c, "database connection error")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		s.unhealthy(c, "database ping failed")
		return
	}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.unhealthy(c, "redis ping failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

func (s *Server) unhealthy(c *gin.Context, reason string) {
	s.logger.WithField("reason", reason).Warn("health check failed")
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status": "unhealthy",
		"error":  reason,
	})
}

func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
