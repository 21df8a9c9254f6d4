// Package session ties the storefront components to one logged-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/currency"
	"github.com/agroreach/storefront/internal/domain/user"
	"github.com/agroreach/storefront/internal/logger"
	"github.com/agroreach/storefront/internal/storefront/api"
	"github.com/agroreach/storefront/internal/storefront/billing"
	"github.com/agroreach/storefront/internal/storefront/cartstore"
	"github.com/agroreach/storefront/internal/storefront/checkout"
	"github.com/agroreach/storefront/internal/storefront/notify"
)

// Session owns the user, token, stores and workflow of one storefront
type Session struct {
	cfg      *config.Config
	client   *api.Client
	notifier *notify.Notifier
	cart     *cartstore.Store
	billing  *billing.Store
	checkout *checkout.Workflow
	logger   *logrus.Entry

	mu   sync.RWMutex
	user *user.User
	conv currency.Converter
}

// New builds a logged-out session. listener receives every notification and
// navigator every page change.
func New(cfg *config.Config, client *api.Client, navigator checkout.Navigator, listener notify.Listener, log logrus.FieldLogger) *Session {
	s := &Session{
		cfg:      cfg,
		client:   client,
		notifier: notify.New(cfg.Storefront.NotificationTTL, listener),
		logger:   logger.Component(log, "session"),
	}

	s.conv = currency.NewConverter(currency.ParseCode(cfg.Storefront.DisplayCurrency), cfg.Storefront.ExchangeRate)
	s.cart = cartstore.New(client, s, s.notifier, logger.Component(log, "cart"))
	s.billing = billing.New(client, logger.Component(log, "billing"))
	s.checkout = checkout.New(s.cart, s.billing, client, navigator, s.notifier, s, s.conv,
		cfg.Checkout, cfg.Storefront.RedirectDelay, logger.Component(log, "checkout"))
	return s
}

// IsAuthenticated reports whether a user is logged in
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.client.Token() != ""
}

// User returns the logged-in user or nil
func (s *Session) User() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Client returns the backend client
func (s *Session) Client() *api.Client { return s.client }

// Cart returns the cart store
func (s *Session) Cart() *cartstore.Store { return s.cart }

// Billing returns the billing store
func (s *Session) Billing() *billing.Store { return s.billing }

// Checkout returns the order workflow
func (s *Session) Checkout() *checkout.Workflow { return s.checkout }

// Notifier returns the notification list
func (s *Session) Notifier() *notify.Notifier { return s.notifier }

// Converter returns the display currency converter
func (s *Session) Converter() currency.Converter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv
}

// ResolveCurrency fetches the display rate from src. On failure prices are
// shown in the base currency.
func (s *Session) ResolveCurrency(ctx context.Context, src currency.RateSource) error {
	conv, err := currency.Resolve(ctx, src, currency.ParseCode(s.cfg.Storefront.DisplayCurrency))

	s.mu.Lock()
	s.conv = conv
	s.mu.Unlock()
	s.checkout.SetConverter(conv)

	if err != nil {
		s.logger.WithError(err).Warn("exchange rate unavailable, showing base prices")
		return err
	}
	return nil
}

// Login authenticates and loads the user's cart and billing address
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	return s.start(ctx, resp.User)
}

// Register creates an account and logs it in
func (s *Session) Register(ctx context.Context, req *user.RegisterRequest) error {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	return s.start(ctx, resp.User)
}

// Resume restores a session from a saved token
func (s *Session) Resume(ctx context.Context, token string) error {
	s.client.SetToken(token)
	u, err := s.client.Me(ctx)
	if err != nil {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		s.client.SetToken("")
		return fmt.Errorf("failed to resume session: %w", err)
	}
	return s.start(ctx, u)
}

func (s *Session) start(ctx context.Context, u *user.User) error {
	if u == nil {
		s.client.SetToken("")
		return errors.New("backend returned no user")
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()

	if err := s.cart.Load(ctx); err != nil {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		s.client.SetToken("")
		s.cart.Reset()
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if err := s.billing.Load(ctx); err != nil {
		s.logger.WithError(err).Warn("continuing without billing address")
	}
	return nil
}

// Logout forgets the user and drops local state. The server cart is kept.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	s.client.SetToken("")
	s.cart.Reset()
	s.billing.Reset()
	s.checkout.Close()
}

// Close releases timers
func (s *Session) Close() {
	s.checkout.Close()
	s.notifier.Close()
}

// SaveToken writes the current token to path, readable only by the owner
func (s *Session) SaveToken(path string) error {
	token := s.client.Token()
	if token == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadToken reads a token saved by SaveToken. A missing file yields "".
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
