// Package cart implements the client-side cart: pure transformations over
// an ordered list of line items, unique by product id, plus the per-user
// persistence adapter.
package cart

import (
	"geoshop/storefront/internal/models"
)

// AddItem returns the cart with one more unit of product. An existing line
// item is incremented; otherwise a new item with quantity 1 is appended.
func AddItem(items []models.LineItem, product models.Product) []models.LineItem {
	productID := product.Key()

	for i, item := range items {
		if item.ProductID == productID {
			next := make([]models.LineItem, len(items))
			copy(next, items)
			next[i].Quantity++
			return next
		}
	}

	return append(cloneItems(items), models.LineItem{
		ProductID: productID,
		Name:      product.Name,
		Category:  product.Category,
		Image:     product.PrimaryImage(),
		Price:     product.Price,
		Quantity:  1,
	})
}

// SetQuantity sets the matching item's quantity to max(0, quantity). Items
// reaching zero are removed entirely; quantity is never stored as zero.
func SetQuantity(items []models.LineItem, productID string, quantity int) []models.LineItem {
	if quantity < 0 {
		quantity = 0
	}

	next := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == productID {
			if quantity == 0 {
				continue
			}
			item.Quantity = quantity
		}
		next = append(next, item)
	}
	return next
}

// RemoveItem filters out the matching item.
func RemoveItem(items []models.LineItem, productID string) []models.LineItem {
	next := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == productID {
			continue
		}
		next = append(next, item)
	}
	return next
}

// Count sums the quantities across all line items.
func Count(items []models.LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func cloneItems(items []models.LineItem) []models.LineItem {
	next := make([]models.LineItem, len(items))
	copy(next, items)
	return next
}
