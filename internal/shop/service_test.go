package shop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoshop/storefront/internal/cart"
	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/retry"
)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (m *memStore) Get(key string) (string, bool) {
	value, ok := m.values[key]
	return value, ok
}

func (m *memStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

type fakeOrderCreator struct {
	failures int
	calls    int
	created  []models.Order
	err      error
}

func (f *fakeOrderCreator) Create(ctx context.Context, order models.Order) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.calls <= f.failures {
		return errors.New("could not acquire session refresh lock for user u1")
	}
	f.created = append(f.created, order)
	return nil
}

func newTestService(store *memStore, orders *fakeOrderCreator) *Service {
	opts := retry.Options{
		Retries: 2,
		Delay:   time.Millisecond,
		Sleep:   func(ctx context.Context, d time.Duration) error { return nil },
	}
	return NewService(cart.NewStorage(store), orders, opts, zerolog.Nop())
}

func mustProduct(t *testing.T, row map[string]any) models.Product {
	t.Helper()
	p, err := models.DecodeProduct(row)
	require.NoError(t, err)
	return p
}

func TestCartOperationsRequireSignIn(t *testing.T) {
	s := newTestService(newMemStore(), &fakeOrderCreator{})

	_, err := s.Items("")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.ErrorIs(t, s.Add("", mustProduct(t, map[string]any{"id": 1})), ErrNotSignedIn)

	_, err = s.Checkout(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestAddPersistsAfterEveryMutation(t *testing.T) {
	store := newMemStore()
	s := newTestService(store, &fakeOrderCreator{})

	level := mustProduct(t, map[string]any{"product_id": "lv-20", "name": "Auto Level", "price": 450.0})
	require.NoError(t, s.Add("u1", level))
	require.NoError(t, s.Add("u1", level))

	// a second service over the same store sees the flushed cart
	restored := newTestService(store, &fakeOrderCreator{})
	items, err := restored.Items("u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestIdentitySwitchLoadsThatUsersCart(t *testing.T) {
	store := newMemStore()
	s := newTestService(store, &fakeOrderCreator{})

	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "a", "name": "A"})))
	require.NoError(t, s.Add("u2", mustProduct(t, map[string]any{"product_id": "b", "name": "B"})))

	items, err := s.Items("u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ProductID)

	count, err := s.Count("u2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCheckoutSubmitsPendingOrderAndClearsCart(t *testing.T) {
	store := newMemStore()
	orders := &fakeOrderCreator{}
	s := newTestService(store, orders)

	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "th-100", "name": "Theodolite", "price": 1299.0})))
	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "th-100", "name": "Theodolite", "price": 1299.0})))
	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "tr-3", "name": "Tripod"})))

	order, err := s.Checkout(context.Background(), "u1")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "tr-3", order.Items[1].ProductID)

	require.Len(t, orders.created, 1)
	assert.Equal(t, order.ID, orders.created[0].ID)

	// both the in-memory cart and the persisted slot are gone
	count, err := s.Count("u1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NotContains(t, store.values, "cart_u1")
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := newTestService(newMemStore(), &fakeOrderCreator{})

	_, err := s.Checkout(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutBindsToActingIdentity(t *testing.T) {
	store := newMemStore()
	orders := &fakeOrderCreator{}
	s := newTestService(store, orders)

	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "th-100", "name": "Theodolite"})))

	// u2 signs in without u1 ever signing out; their checkout must see
	// their own (empty) cart, not u1's.
	_, err := s.Checkout(context.Background(), "u2")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.created)
	assert.Contains(t, store.values, "cart_u1", "the other user's slot stays untouched")

	order, err := s.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "th-100", order.Items[0].ProductID)
	assert.NotContains(t, store.values, "cart_u1")
}

func TestCheckoutAfterRestartUsesPersistedCart(t *testing.T) {
	store := newMemStore()
	first := newTestService(store, &fakeOrderCreator{})
	require.NoError(t, first.Add("u1", mustProduct(t, map[string]any{"product_id": "a", "name": "A"})))

	// a fresh service has no acting identity yet; checkout alone must
	// load the persisted cart
	orders := &fakeOrderCreator{}
	restarted := newTestService(store, orders)

	order, err := restarted.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)
	require.Len(t, orders.created, 1)
	assert.NotContains(t, store.values, "cart_u1")
}

func TestCheckoutRetriesLockFailures(t *testing.T) {
	store := newMemStore()
	orders := &fakeOrderCreator{failures: 2}
	s := newTestService(store, orders)

	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "a", "name": "A"})))

	order, err := s.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, orders.calls)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	store := newMemStore()
	orders := &fakeOrderCreator{err: errors.New("permission denied")}
	s := newTestService(store, orders)

	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "a", "name": "A"})))

	_, err := s.Checkout(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, 1, orders.calls)

	count, err := s.Count("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, store.values, "cart_u1")
}

func TestResetDropsStateWithoutTouchingStorage(t *testing.T) {
	store := newMemStore()
	s := newTestService(store, &fakeOrderCreator{})

	require.NoError(t, s.Add("u1", mustProduct(t, map[string]any{"product_id": "a", "name": "A"})))
	s.Reset()

	_, err := s.Checkout(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	// the persisted cart survives for the next sign-in
	items, err := s.Items("u1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
