package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"geoshop/storefront/internal/admin"
	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/repository"
)

// AdminCreateProduct takes a multipart form: text fields plus the product
// image. Field validation happens before any backend round trip.
func (h HandlerSet) AdminCreateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	input := admin.ProductInput{
		Name:        c.PostForm("name"),
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Price:       formNumber(c, "price"),
		Rating:      formNumber(c, "rating"),
		Reviews:     formNumber(c, "reviews"),
	}

	if input.Name == "" || input.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and category are required."})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Select an image before uploading."})
		return
	}
	defer file.Close()

	imageURL, err := h.admin.UploadImage(
		c.Request.Context(),
		user.ID,
		header.Filename,
		file,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed: " + err.Error()})
		return
	}
	input.ImageURL = imageURL

	if err := h.admin.CreateProduct(c.Request.Context(), input); err != nil {
		if errors.Is(err, admin.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status, message := productErrorResponse(err)
		c.JSON(status, gin.H{"error": "Product insert failed: " + message})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Product uploaded successfully.",
		"imageUrl": imageURL,
	})
}

func (h HandlerSet) AdminListOrders(c *gin.Context) {
	orders, err := h.reconciler.Orders()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to load orders."})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"items": orders})
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h HandlerSet) AdminUpdateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.admin.UpdateOrderStatus(c.Request.Context(), c.Param("orderId"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func formNumber(c *gin.Context, field string) *float64 {
	raw := c.PostForm(field)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}
