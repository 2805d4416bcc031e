package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoshop/storefront/internal/shop"
)

func (h HandlerSet) Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	order, err := h.shop.Checkout(c.Request.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cart_empty"})
		case errors.Is(err, shop.ErrNotSignedIn):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "login_required",
				"redirect": "/login",
				"from":     "/geoshop",
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	h.reconciler.SetNotice("Order submitted. Waiting for admin approval.")
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h HandlerSet) Notices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notice": h.reconciler.Notice()})
}
