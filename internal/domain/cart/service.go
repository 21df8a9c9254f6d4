// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/agroreach/storefront/internal/domain/product"
)

// Catalog resolves products for cart lines
type Catalog interface {
	GetPurchasable(ctx context.Context, id uint) (*product.Product, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]product.Product, error)
}

// Service handles cart business logic
type Service struct {
	repo    Repository
	cache   Cache
	catalog Catalog
	logger  *logrus.Entry
	sfg     singleflight.Group

	// generations counts invalidations per user; a load only caches its
	// snapshot when no mutation landed while it ran
	mu          sync.Mutex
	generations map[uint]uint64
}

// NewService creates a new cart service
func NewService(repo Repository, cache Cache, catalog Catalog, logger *logrus.Entry) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		catalog:     catalog,
		logger:      logger,
		generations: make(map[uint]uint64),
	}
}

// GetCart returns the user's hydrated cart. An unknown user gets an empty cart.
func (s *Service) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	v, err, _ := s.sfg.Do(flightKey(userID), func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WithError(err).Warn("cart cache get failed")
		}

		gen := s.generation(userID)
		cart, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		s.cacheIfCurrent(ctx, userID, gen, cart)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Cart), nil
}

// AddItem adds quantity units of a product, merging into an existing line
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if _, err := s.catalog.GetPurchasable(ctx, productID); err != nil {
		return err
	}

	if err := s.repo.AddItem(ctx, userID, productID, quantity); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Error("cart add failed")
		return err
	}

	s.invalidate(userID)
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	if err := s.repo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			s.logger.WithError(err).WithField("product_id", productID).Error("cart update failed")
		}
		return err
	}

	s.invalidate(userID)
	return nil
}

// RemoveItem deletes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			s.logger.WithError(err).WithField("product_id", productID).Error("cart remove failed")
		}
		return err
	}

	s.invalidate(userID)
	return nil
}

// ClearCart deletes every line of the cart
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		s.logger.WithError(err).Error("cart clear failed")
		return err
	}

	s.invalidate(userID)
	return nil
}

func (s *Service) load(ctx context.Context, userID uint) (*Cart, error) {
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	cart := &Cart{
		UserID:    userID,
		Items:     make([]Line, 0, len(items)),
		UpdatedAt: time.Now().UTC(),
	}

	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		p, ok := products[item.ProductID]
		if !ok {
			// delisted products stay in storage but are not sold
			continue
		}
		cart.Items = append(cart.Items, Line{
			Product: ProductSummary{
				ID:    p.ID,
				Name:  p.Name,
				Price: p.Price,
				Image: p.Image,
			},
			Quantity: item.Quantity,
		})
		if item.UpdatedAt.After(cart.UpdatedAt) {
			cart.UpdatedAt = item.UpdatedAt
		}
	}

	cart.Totals = calculateTotals(cart.Items)
	return cart, nil
}

func (s *Service) generation(userID uint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// cacheIfCurrent stores cart unless the user's cart changed after gen was
// read. The check and the write share the lock with invalidate's bump, so a
// stale snapshot is either skipped or removed by the following Delete.
func (s *Service) cacheIfCurrent(ctx context.Context, userID uint, gen uint64, cart *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		s.logger.WithField("user_id", userID).Debug("cart changed during load, not caching")
		return
	}
	if err := s.cache.Set(ctx, userID, cart); err != nil {
		s.logger.WithError(err).Warn("cart cache set failed")
	}
}

func (s *Service) invalidate(userID uint) {
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
	s.sfg.Forget(flightKey(userID))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WithError(err).Warn("cart cache invalidate failed")
	}
}

func flightKey(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
