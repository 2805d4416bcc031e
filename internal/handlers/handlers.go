package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"geoshop/storefront/internal/admin"
	"geoshop/storefront/internal/auth"
	"geoshop/storefront/internal/config"
	"geoshop/storefront/internal/live"
	"geoshop/storefront/internal/middleware"
	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/retry"
	"geoshop/storefront/internal/session"
	"geoshop/storefront/internal/shop"
)

type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	db         *pgxpool.Pool
	cache      *redis.Client
	sessions   *session.Manager
	shop       *shop.Service
	reconciler *live.Reconciler
	auth       *auth.Client
	admin      *admin.Service
	retryOpts  retry.Options
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	db *pgxpool.Pool,
	cache *redis.Client,
	sessions *session.Manager,
	shopService *shop.Service,
	reconciler *live.Reconciler,
	authClient *auth.Client,
	adminService *admin.Service,
) HandlerSet {
	return HandlerSet{
		log:        log,
		cfg:        cfg,
		db:         db,
		cache:      cache,
		sessions:   sessions,
		shop:       shopService,
		reconciler: reconciler,
		auth:       authClient,
		admin:      adminService,
		retryOpts:  retry.Options{Retries: cfg.Retry.Retries, Delay: cfg.Retry.Delay},
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", h.RegisterUser)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/session", h.Session)

		v1.GET("/products", h.ListProducts)

		userOnly := v1.Group("")
		userOnly.Use(middleware.RequireUser(h.sessions))
		userOnly.GET("/cart", h.GetCart)
		userOnly.POST("/cart/items", h.AddToCart)
		userOnly.PATCH("/cart/items/:productId", h.SetCartQuantity)
		userOnly.DELETE("/cart/items/:productId", h.RemoveFromCart)
		userOnly.POST("/checkout", h.Checkout)
		userOnly.GET("/notices", h.Notices)

		adminGroup := v1.Group("/admin")
		adminGroup.Use(
			middleware.RequireUser(h.sessions),
			middleware.RequireRoles(models.RoleAdmin),
		)
		adminGroup.POST("/products", h.AdminCreateProduct)
		adminGroup.GET("/orders", h.AdminListOrders)
		adminGroup.PATCH("/orders/:orderId/status", h.AdminUpdateOrderStatus)
	}
}

func currentUser(c *gin.Context) (models.Identity, bool) {
	userVal, exists := c.Get("current_user")
	if !exists {
		return models.Identity{}, false
	}
	user, ok := userVal.(models.Identity)
	return user, ok
}
