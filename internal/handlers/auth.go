package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoshop/storefront/internal/auth"
	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/retry"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type sessionResponse struct {
	User    *models.Identity `json:"user"`
	Role    models.Role      `json:"role,omitempty"`
	Loading bool             `json:"loading"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := retry.Do(c.Request.Context(), h.retryOpts, func(ctx context.Context) (models.Identity, error) {
		return h.auth.SignUp(ctx, req.Email, req.Password)
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, auth.ErrEmailTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": identity})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := retry.Do(c.Request.Context(), h.retryOpts, func(ctx context.Context) (models.Identity, error) {
		return h.auth.SignInWithPassword(ctx, req.Email, req.Password)
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, auth.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": identity})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.shop.Reset()
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Session(c *gin.Context) {
	snap := h.sessions.Snapshot()
	c.JSON(http.StatusOK, sessionResponse{
		User:    snap.User,
		Role:    snap.Role,
		Loading: snap.Loading,
	})
}
