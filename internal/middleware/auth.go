package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geoshop/storefront/internal/session"
)

const loginFrom = "/geoshop"

type SessionSource interface {
	Snapshot() session.Snapshot
}

// RequireUser gates routes on the session manager's snapshot. While the
// session is still hydrating the snapshot is not authoritative, so the
// request is refused rather than treated as anonymous.
func RequireUser(sessions SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := sessions.Snapshot()

		if snap.Loading {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session_loading"})
			return
		}

		if snap.User == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "login_required",
				"redirect": "/login",
				"from":     loginFrom,
			})
			return
		}

		c.Set("current_user", *snap.User)
		c.Set("current_role", snap.Role)

		c.Next()
	}
}
