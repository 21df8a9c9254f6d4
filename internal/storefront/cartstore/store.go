// Package cartstore keeps the storefront's view of the server cart.
package cartstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/cart"
)

// ErrNotLoggedIn is returned by mutations when there is no session
var ErrNotLoggedIn = errors.New("please log in to add items to your cart")

// Remote is the server cart resource
type Remote interface {
	GetCart(ctx context.Context) ([]cart.Line, error)
	AddToCart(ctx context.Context, productID uint, quantity int) error
	UpdateCartItem(ctx context.Context, productID uint, quantity int) error
	RemoveCartItem(ctx context.Context, productID uint) error
	ClearCart(ctx context.Context) error
}

// Session reports whether a user is logged in
type Session interface {
	IsAuthenticated() bool
}

// Notifier shows messages to the customer
type Notifier interface {
	Notify(message string) uint64
	Alert(message string) uint64
}

// Item is one cart line in base currency
type Item struct {
	ProductID uint
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Image     string
}

// LineTotal is unit price times quantity
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Store mirrors the server cart. Every mutation is followed by a full reload
// and the lock is held across both, so mutations never interleave.
type Store struct {
	remote   Remote
	session  Session
	notifier Notifier
	logger   logrus.FieldLogger

	mu    sync.Mutex
	items []Item
}

// New creates an empty store
func New(remote Remote, session Session, notifier Notifier, logger logrus.FieldLogger) *Store {
	return &Store{
		remote:   remote,
		session:  session,
		notifier: notifier,
		logger:   logger,
	}
}

// Load replaces local state with the server cart
func (s *Store) Load(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx, "load cart")
}

// AddItem adds quantity units of p. A quantity below 1 adds one unit.
func (s *Store) AddItem(ctx context.Context, p cart.ProductSummary, quantity int) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remote.AddToCart(ctx, p.ID, quantity); err != nil {
		return s.fail(err, "add item to cart")
	}
	if err := s.reload(ctx, "add item to cart"); err != nil {
		return err
	}

	s.notifier.Notify(fmt.Sprintf("%s added to cart", p.Name))
	return nil
}

// RemoveItem deletes the line for productID
func (s *Store) RemoveItem(ctx context.Context, productID uint) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, productID)
}

func (s *Store) removeLocked(ctx context.Context, productID uint) error {
	removed, found := s.find(productID)

	if err := s.remote.RemoveCartItem(ctx, productID); err != nil {
		return s.fail(err, "remove item from cart")
	}
	if err := s.reload(ctx, "remove item from cart"); err != nil {
		return err
	}

	if found {
		s.notifier.Notify(fmt.Sprintf("%s removed from cart", removed.Name))
	}
	return nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, productID uint, quantity int) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, productID)
	}

	if err := s.remote.UpdateCartItem(ctx, productID, quantity); err != nil {
		return s.fail(err, "update cart")
	}
	return s.reload(ctx, "update cart")
}

// Clear empties the server cart and the local view
func (s *Store) Clear(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remote.ClearCart(ctx); err != nil {
		return s.fail(err, "clear cart")
	}
	s.items = nil
	return nil
}

// Reset drops local state without calling the server, used on logout
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns a copy of the current lines
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the number of units across all lines
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Total is the unrounded sum of unit price times quantity in base currency
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (s *Store) find(productID uint) (Item, bool) {
	for _, it := range s.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// reload must be called with mu held. A cancelled ctx leaves state untouched.
func (s *Store) reload(ctx context.Context, action string) error {
	lines, err := s.remote.GetCart(ctx)
	if err != nil {
		return s.fail(err, action)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.items = fromLines(lines)
	return nil
}

func (s *Store) fail(err error, action string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.WithError(err).WithField("action", action).Warn("cart request failed")
	s.notifier.Alert(fmt.Sprintf("Failed to %s. Please try again.", action))
	return fmt.Errorf("failed to %s: %w", action, err)
}

// fromLines converts server lines, dropping any with a non-positive quantity
func fromLines(lines []cart.Line) []Item {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		items = append(items, Item{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: l.Product.Price,
			Quantity:  l.Quantity,
			Image:     l.Product.Image,
		})
	}
	return items
}
