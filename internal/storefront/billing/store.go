// Package billing holds the storefront's copy of the user's billing address.
package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/user"
)

// Remote is the billing profile resource
type Remote interface {
	GetBilling(ctx context.Context) (user.Address, error)
	SaveBilling(ctx context.Context, addr user.Address) (user.Address, error)
}

// Store caches the billing address of the logged-in user
type Store struct {
	remote Remote
	logger logrus.FieldLogger

	mu     sync.RWMutex
	addr   user.Address
	loaded bool
}

// New creates an empty store
func New(remote Remote, logger logrus.FieldLogger) *Store {
	return &Store{remote: remote, logger: logger}
}

// Load fetches the stored address
func (s *Store) Load(ctx context.Context) error {
	addr, err := s.remote.GetBilling(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("billing address load failed")
		return fmt.Errorf("failed to load billing address: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addr = addr
	s.loaded = true
	return nil
}

// Save stores addr remotely and keeps what the server returned
func (s *Store) Save(ctx context.Context, addr user.Address) error {
	saved, err := s.remote.SaveBilling(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to save billing address: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addr = saved
	s.loaded = true
	return nil
}

// Address returns the current address, empty when nothing is loaded
func (s *Store) Address() user.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Loaded reports whether an address has been fetched or saved
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// MissingFields lists the labels of empty required fields
func (s *Store) MissingFields() []string {
	return s.Address().MissingFields()
}

// Reset forgets the address, used on logout
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addr = user.Address{}
	s.loaded = false
}
