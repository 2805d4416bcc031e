package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/repository"
)

func (h HandlerSet) ListProducts(c *gin.Context) {
	products, err := h.reconciler.Products()
	if err != nil {
		status, message := productErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      products,
		"categories": categories(products),
	})
}

// productErrorResponse distinguishes authorization rejections from schema
// errors so the storefront can explain what is actually wrong.
func productErrorResponse(err error) (int, string) {
	switch {
	case repository.IsPermissionDenied(err):
		return http.StatusForbidden, "Products are blocked by row level security. Add a SELECT policy for this role."
	case repository.IsUndefinedTable(err):
		return http.StatusInternalServerError, "The products table was not found in the current project."
	default:
		return http.StatusBadGateway, "Unable to load products."
	}
}

func categories(products []models.Product) []string {
	seen := map[string]struct{}{}
	result := []string{"All"}
	for _, product := range products {
		if product.Category == "" {
			continue
		}
		if _, ok := seen[product.Category]; ok {
			continue
		}
		seen[product.Category] = struct{}{}
		result = append(result, product.Category)
	}
	return result
}
