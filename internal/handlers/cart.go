package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geoshop/storefront/internal/models"
)

func (h HandlerSet) GetCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.sendCart(c, user.ID)
}

// AddToCart accepts the product row as-is; the cart derives its join key
// and display fields from whatever columns are present.
func (h HandlerSet) AddToCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var row map[string]any
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := models.DecodeProduct(row)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if product.Key() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id_required"})
		return
	}

	if err := h.shop.Add(user.ID, product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.sendCart(c, user.ID)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h HandlerSet) SetCartQuantity(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.shop.SetQuantity(user.ID, c.Param("productId"), req.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.sendCart(c, user.ID)
}

func (h HandlerSet) RemoveFromCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.shop.Remove(user.ID, c.Param("productId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.sendCart(c, user.ID)
}

func (h HandlerSet) sendCart(c *gin.Context, userID string) {
	items, err := h.shop.Items(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	count, err := h.shop.Count(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if items == nil {
		items = []models.LineItem{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": count,
	})
}
