package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoshop/storefront/internal/models"
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

func TestStorageRoundTrip(t *testing.T) {
	store := newMemStore()
	storage := NewStorage(store)

	items := []models.LineItem{
		{ProductID: "th-100", Name: "Theodolite TH-100", Category: "Optical", Price: floatPtr(1299), Quantity: 2},
		{ProductID: "tr-3", Name: "Tripod", Quantity: 1},
	}
	require.NoError(t, storage.Save("user-1", items))

	loaded := storage.Load("user-1")
	assert.Equal(t, items, loaded)

	// load is read-only: a second load sees the same cart
	assert.Equal(t, loaded, storage.Load("user-1"))
}

func TestStorageSlotsAreIsolatedPerUser(t *testing.T) {
	storage := NewStorage(newMemStore())

	require.NoError(t, storage.Save("user-1", []models.LineItem{{ProductID: "a", Quantity: 1}}))
	require.NoError(t, storage.Save("user-2", []models.LineItem{{ProductID: "b", Quantity: 4}}))

	assert.Equal(t, "a", storage.Load("user-1")[0].ProductID)
	assert.Equal(t, "b", storage.Load("user-2")[0].ProductID)

	require.NoError(t, storage.Clear("user-1"))
	assert.Empty(t, storage.Load("user-1"))
	assert.Len(t, storage.Load("user-2"), 1)
}

func TestStorageLoadNormalizesLegacyRows(t *testing.T) {
	store := newMemStore()
	store.values["cart_user-1"] = `[
		{"id": 42, "name": "GPS Rover", "quantity": "3", "price": 8999},
		{"name": "Prism Pole"},
		{"product_id": "lv-20", "name": "Auto Level", "quantity": 0}
	]`

	items := NewStorage(store).Load("user-1")
	require.Len(t, items, 3)

	assert.Equal(t, "42", items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, 8999.0, *items[0].Price)

	assert.Equal(t, "Prism Pole", items[1].ProductID)
	assert.Equal(t, 1, items[1].Quantity)

	assert.Equal(t, "lv-20", items[2].ProductID)
	assert.Equal(t, 1, items[2].Quantity, "quantities below one are clamped")
}

func TestStorageLoadFailsOpen(t *testing.T) {
	store := newMemStore()
	storage := NewStorage(store)

	store.values["cart_user-1"] = `not json`
	assert.Empty(t, storage.Load("user-1"))

	store.values["cart_user-1"] = `{"items": []}`
	assert.Empty(t, storage.Load("user-1"), "non-array content yields an empty cart")

	store.values["cart_user-1"] = ``
	assert.Empty(t, storage.Load("user-1"))
}

func TestStorageIgnoresAnonymousUser(t *testing.T) {
	store := newMemStore()
	storage := NewStorage(store)

	assert.Nil(t, storage.Load(""))
	assert.NoError(t, storage.Save("", []models.LineItem{{ProductID: "a", Quantity: 1}}))
	assert.NoError(t, storage.Clear(""))
	assert.Empty(t, store.values)
}
