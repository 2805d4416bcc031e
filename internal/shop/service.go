// Package shop drives the signed-in user's cart: in-memory mutations
// flushed to per-user storage on every change, and checkout submitting the
// cart as a pending order.
package shop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"geoshop/storefront/internal/cart"
	"geoshop/storefront/internal/ids"
	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/retry"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrEmptyCart   = errors.New("cart is empty")
)

type OrderCreator interface {
	Create(ctx context.Context, order models.Order) error
}

type Service struct {
	storage *cart.Storage
	orders  OrderCreator
	retry   retry.Options
	log     zerolog.Logger

	mu     sync.Mutex // held across checkout I/O; one operator, short queues
	userID string
	items  []models.LineItem
}

func NewService(storage *cart.Storage, orders OrderCreator, opts retry.Options, log zerolog.Logger) *Service {
	return &Service{
		storage: storage,
		orders:  orders,
		retry:   opts,
		log:     log,
	}
}

// ensure loads the persisted cart when the acting identity changed since
// the last call. Caller holds the lock.
func (s *Service) ensure(userID string) error {
	if userID == "" {
		return ErrNotSignedIn
	}
	if s.userID != userID {
		s.userID = userID
		s.items = s.storage.Load(userID)
	}
	return nil
}

func (s *Service) Items(userID string) ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(userID); err != nil {
		return nil, err
	}
	items := make([]models.LineItem, len(s.items))
	copy(items, s.items)
	return items, nil
}

func (s *Service) Count(userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(userID); err != nil {
		return 0, err
	}
	return cart.Count(s.items), nil
}

func (s *Service) Add(userID string, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(userID); err != nil {
		return err
	}
	s.items = cart.AddItem(s.items, product)
	return s.flush()
}

func (s *Service) SetQuantity(userID string, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(userID); err != nil {
		return err
	}
	s.items = cart.SetQuantity(s.items, productID, quantity)
	return s.flush()
}

func (s *Service) Remove(userID string, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(userID); err != nil {
		return err
	}
	s.items = cart.RemoveItem(s.items, productID)
	return s.flush()
}

// Checkout submits the acting user's cart as a pending order through the
// retry wrapper. The cart and its persisted slot are cleared only after
// the backend confirms the order.
func (s *Service) Checkout(ctx context.Context, userID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(userID); err != nil {
		return models.Order{}, err
	}
	if len(s.items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	items := make([]models.LineItem, len(s.items))
	copy(items, s.items)

	order := models.Order{
		ID:        ids.New(),
		UserID:    s.userID,
		Items:     items,
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := retry.Do(ctx, s.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.orders.Create(ctx, order)
	}); err != nil {
		return models.Order{}, err
	}

	s.items = nil
	if err := s.storage.Clear(s.userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", s.userID).Msg("clear cart storage failed")
	}
	return order, nil
}

// Reset drops in-memory cart state, used on sign-out so the next identity
// never sees the previous user's items.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.items = nil
}

func (s *Service) flush() error {
	if err := s.storage.Save(s.userID, s.items); err != nil {
		s.log.Warn().Err(err).Str("user_id", s.userID).Msg("persist cart failed")
		return nil // persistence failures do not surface to cart callers
	}
	return nil
}
