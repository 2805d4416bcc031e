package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoshop/storefront/internal/models"
)

func product(row map[string]any) models.Product {
	p, err := models.DecodeProduct(row)
	if err != nil {
		panic(err)
	}
	return p
}

func floatPtr(v float64) *float64 { return &v }

func TestAddItemAppendsNewLine(t *testing.T) {
	theodolite := product(map[string]any{
		"product_id": "th-100",
		"name":       "Theodolite TH-100",
		"category":   "Optical",
		"price":      1299.0,
		"images":     []any{"https://img/th-100.png", "https://img/th-100-side.png"},
	})

	items := AddItem(nil, theodolite)

	require.Len(t, items, 1)
	assert.Equal(t, models.LineItem{
		ProductID: "th-100",
		Name:      "Theodolite TH-100",
		Category:  "Optical",
		Image:     "https://img/th-100.png",
		Price:     floatPtr(1299.0),
		Quantity:  1,
	}, items[0])
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	level := product(map[string]any{"product_id": "lv-20", "name": "Auto Level"})

	items := AddItem(nil, level)
	items = AddItem(items, level)
	items = AddItem(items, level)

	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 3, Count(items))
}

func TestAddItemKeyPriority(t *testing.T) {
	assert.Equal(t, "pid", product(map[string]any{"product_id": "pid", "id": 7, "sku": "s", "name": "n"}).Key())
	assert.Equal(t, "7", product(map[string]any{"id": 7, "sku": "s", "name": "n"}).Key())
	assert.Equal(t, "s", product(map[string]any{"sku": "s", "name": "n"}).Key())
	assert.Equal(t, "n", product(map[string]any{"name": "n"}).Key())
}

func TestAddItemDoesNotMutateInput(t *testing.T) {
	level := product(map[string]any{"product_id": "lv-20", "name": "Auto Level"})
	original := AddItem(nil, level)

	grown := AddItem(original, level)

	assert.Equal(t, 1, original[0].Quantity)
	assert.Equal(t, 2, grown[0].Quantity)
}

func TestSetQuantity(t *testing.T) {
	level := product(map[string]any{"product_id": "lv-20", "name": "Auto Level"})
	tripod := product(map[string]any{"product_id": "tr-3", "name": "Tripod"})
	items := AddItem(AddItem(nil, level), tripod)

	items = SetQuantity(items, "lv-20", 5)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 6, Count(items))

	// zero removes the line instead of storing quantity 0
	items = SetQuantity(items, "lv-20", 0)
	require.Len(t, items, 1)
	assert.Equal(t, "tr-3", items[0].ProductID)

	// negative clamps to zero, same removal
	items = SetQuantity(items, "tr-3", -4)
	assert.Empty(t, items)
}

func TestSetQuantityUnknownIDIsNoop(t *testing.T) {
	level := product(map[string]any{"product_id": "lv-20", "name": "Auto Level"})
	items := AddItem(nil, level)

	assert.Equal(t, items, SetQuantity(items, "missing", 9))
}

func TestRemoveItem(t *testing.T) {
	level := product(map[string]any{"product_id": "lv-20", "name": "Auto Level"})
	tripod := product(map[string]any{"product_id": "tr-3", "name": "Tripod"})
	items := AddItem(AddItem(nil, level), tripod)

	items = RemoveItem(items, "lv-20")
	require.Len(t, items, 1)
	assert.Equal(t, "tr-3", items[0].ProductID)

	assert.Empty(t, RemoveItem(RemoveItem(items, "tr-3"), "tr-3"))
}
