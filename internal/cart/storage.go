package cart

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"geoshop/storefront/internal/kv"
	"geoshop/storefront/internal/models"
)

// Storage persists one cart per signed-in user. There is no anonymous
// cart: every operation is a no-op without a user id. Malformed persisted
// content yields an empty cart, never an error; concurrent writers follow
// last-write-wins.
type Storage struct {
	store kv.Store
}

func NewStorage(store kv.Store) *Storage {
	return &Storage{store: store}
}

// Load reads the user's cart slot and normalizes every item. Any parse
// failure or non-array content fails open to an empty cart.
func (s *Storage) Load(userID string) []models.LineItem {
	if userID == "" {
		return nil
	}

	raw, ok := s.store.Get(cartKey(userID))
	if !ok || raw == "" {
		return nil
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil
	}

	items := make([]models.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, normalizeItem(row))
	}
	return items
}

// Save overwrites the user's cart slot.
func (s *Storage) Save(userID string, items []models.LineItem) error {
	if userID == "" {
		return nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.store.Set(cartKey(userID), string(data))
}

// Clear removes the user's cart slot.
func (s *Storage) Clear(userID string) error {
	if userID == "" {
		return nil
	}
	return s.store.Delete(cartKey(userID))
}

func cartKey(userID string) string {
	return "cart_" + userID
}

func normalizeItem(row map[string]any) models.LineItem {
	item := models.LineItem{Quantity: 1}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &item,
		WeaklyTypedInput: true,
	})
	if err == nil {
		_ = decoder.Decode(row)
	}

	// Older slots may predate the product_id column; fall back to id or
	// name the same way the catalog join key is derived.
	if item.ProductID == "" {
		for _, column := range []string{"id", "name"} {
			if value, ok := row[column]; ok && value != nil {
				item.ProductID = fmt.Sprint(value)
				break
			}
		}
	}

	if item.Quantity < 1 {
		item.Quantity = 1
	}
	return item
}
