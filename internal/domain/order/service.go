// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/currency"
	"github.com/agroreach/storefront/internal/domain/product"
)

// Catalog resolves the products referenced by an order
type Catalog interface {
	GetByIDs(ctx context.Context, ids []uint) (map[uint]product.Product, error)
}

// EventPublisher announces placed orders to other systems
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *Order) error
}

// Notifier tells the customer their order was placed
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *Order) error
}

// NopPublisher drops every event
type NopPublisher struct{}

// PublishOrderPlaced implements EventPublisher
func (NopPublisher) PublishOrderPlaced(context.Context, *Order) error { return nil }

// NopNotifier sends nothing
type NopNotifier struct{}

// SendOrderConfirmation implements Notifier
func (NopNotifier) SendOrderConfirmation(context.Context, *Order) error { return nil }

const maxIdempotencyKeyLen = 64

// Service handles order placement and history
type Service struct {
	repo        Repository
	catalog     Catalog
	redisClient *redis.Client
	pricing     Pricing
	lockTTL     time.Duration
	publisher   EventPublisher
	notifier    Notifier
	logger      *logrus.Entry
}

// NewService creates a new order service
func NewService(repo Repository, catalog Catalog, redisClient *redis.Client, cfg *config.Config, logger *logrus.Entry) *Service {
	return &Service{
		repo:        repo,
		catalog:     catalog,
		redisClient: redisClient,
		pricing: Pricing{
			TaxRate:  cfg.Checkout.TaxRate,
			Shipping: cfg.Checkout.ShippingFlat,
		},
		lockTTL:   cfg.Redis.OrderLockTTL,
		publisher: NopPublisher{},
		notifier:  NopNotifier{},
		logger:    logger,
	}
}

// WithPublisher sets the order event publisher
func (s *Service) WithPublisher(p EventPublisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithNotifier sets the customer notifier
func (s *Service) WithNotifier(n Notifier) *Service {
	if n != nil {
		s.notifier = n
	}
	return s
}

// CreateOrder validates and stores an order. When the user already placed
// an order with the same idempotency key, that order is returned and created
// is false.
func (s *Service) CreateOrder(ctx context.Context, userID uint, req *CreateOrderRequest) (order *Order, created bool, err error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLen {
		return nil, false, ValidationErrors{{Field: "idempotencyKey", Message: "idempotency key is too long"}}
	}

	if existing, err := s.findExisting(ctx, userID, req.IdempotencyKey); err != nil || existing != nil {
		return existing, false, err
	}

	unlock, err := s.lock(ctx, userID, req.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	// a concurrent request may have finished between the first lookup and the lock
	if existing, err := s.findExisting(ctx, userID, req.IdempotencyKey); err != nil || existing != nil {
		return existing, false, err
	}

	products, err := s.catalog.GetByIDs(ctx, req.productIDs())
	if err != nil {
		return nil, false, err
	}

	if verrs := s.validate(req, products); len(verrs) > 0 {
		return nil, false, verrs
	}

	order = s.buildOrder(userID, req, products)

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, ErrDuplicateOrderKey) {
			existing, findErr := s.findExisting(ctx, userID, req.IdempotencyKey)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total":        order.Total.String(),
		"currency":     order.Currency,
	}).Info("order placed")

	s.afterCreate(order)
	return order, true, nil
}

// GetUserOrder returns one of the user's orders
func (s *Service) GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	return s.repo.GetByUser(ctx, userID, orderID)
}

// GetUserOrders returns the user's order history, newest first
func (s *Service) GetUserOrders(ctx context.Context, userID uint, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 10
	}

	orders, total, err := s.repo.ListByUser(ctx, userID, (req.Page-1)*req.Limit, req.Limit)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

func (s *Service) findExisting(ctx context.Context, userID uint, key string) (*Order, error) {
	existing, err := s.repo.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, nil
	}
	return existing, err
}

// lock takes a short redis lock on (user, key). Without redis the unique
// index on the orders table still rejects duplicates.
func (s *Service) lock(ctx context.Context, userID uint, key string) (func(), error) {
	if s.redisClient == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("order_lock:%d:%s", userID, key)
	ok, err := s.redisClient.SetNX(ctx, lockKey, "1", s.lockTTL).Result()
	if err != nil {
		s.logger.WithError(err).Warn("order lock unavailable, relying on unique index")
		return func() {}, nil
	}
	if !ok {
		return nil, ErrOrderInProgress
	}

	return func() {
		delCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.redisClient.Del(delCtx, lockKey).Err(); err != nil {
			s.logger.WithError(err).Warn("failed to release order lock")
		}
	}, nil
}

// validate collects every problem with the request instead of stopping at the first
func (s *Service) validate(req *CreateOrderRequest, products map[uint]product.Product) ValidationErrors {
	var verrs ValidationErrors

	for _, label := range req.ShippingAddress.MissingFields() {
		verrs.add("shippingAddress", label+" is required")
	}
	if err := req.ShippingAddress.CheckEmail(); err != nil {
		verrs.add("shippingAddress", "Email Address is not valid")
	}

	if !req.PaymentMethod.Valid() {
		verrs.add("paymentMethod", fmt.Sprintf("payment method %q is not supported", req.PaymentMethod))
	}

	code := currency.Code(req.Currency)
	if code != currency.USD && code != currency.INR {
		verrs.add("currency", fmt.Sprintf("currency %q is not supported", req.Currency))
	}

	if len(req.Items) == 0 {
		verrs.add("items", "order must contain at least one item")
	}

	seen := make(map[uint]bool, len(req.Items))
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if seen[item.Product] {
			verrs.add(field, fmt.Sprintf("product %d appears more than once", item.Product))
		}
		seen[item.Product] = true

		if item.Quantity < 1 {
			verrs.add(field, "quantity must be at least 1")
		}
		if !item.Price.IsPositive() {
			verrs.add(field, "price must be positive")
		}

		p, ok := products[item.Product]
		if !ok {
			verrs.add(field, fmt.Sprintf("product %d is not available", item.Product))
			continue
		}
		// prices in other currencies depend on the client's rate and are not checked
		if code == currency.Base && !moneyEqual(item.Price, p.Price) {
			verrs.add(field, fmt.Sprintf("price of %s has changed to %s", p.Name, p.Price.StringFixed(2)))
		}
	}

	expected := s.pricing.Compute(req.pricedLines())
	if !moneyEqual(req.Subtotal, expected.Subtotal) {
		verrs.add("subtotal", "subtotal does not match the items")
	}
	if !moneyEqual(req.Shipping, expected.Shipping) {
		verrs.add("shipping", fmt.Sprintf("shipping must be %s", expected.Shipping.StringFixed(2)))
	}
	if !moneyEqual(req.Tax, req.Subtotal.Mul(s.pricing.TaxRate)) {
		verrs.add("tax", "tax does not match the subtotal")
	}
	if !moneyEqual(req.Total, req.Subtotal.Add(req.Shipping).Add(req.Tax)) {
		verrs.add("total", "total must equal subtotal plus shipping plus tax")
	}

	return verrs
}

func (s *Service) buildOrder(userID uint, req *CreateOrderRequest, products map[uint]product.Product) *Order {
	order := &Order{
		UserID:          userID,
		IdempotencyKey:  req.IdempotencyKey,
		Status:          OrderStatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress.Normalize(),
		Subtotal:        req.Subtotal,
		Shipping:        req.Shipping,
		Tax:             req.Tax,
		Total:           req.Total,
		Currency:        req.Currency,
		Items:           make([]OrderItem, 0, len(req.Items)),
	}

	for _, item := range req.Items {
		p := products[item.Product]
		order.Items = append(order.Items, OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	order.AddStatusHistory(OrderStatusPending, "Order created", userID)
	return order
}

// afterCreate publishes the event and sends the confirmation. Failures are
// logged and never undo the order.
func (s *Service) afterCreate(order *Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.WithError(err).WithField("order_number", order.OrderNumber).Error("failed to publish order event")
	}
	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		s.logger.WithError(err).WithField("order_number", order.OrderNumber).Warn("failed to send order confirmation")
	}
}

func (r *CreateOrderRequest) productIDs() []uint {
	ids := make([]uint, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.Product)
	}
	return ids
}
