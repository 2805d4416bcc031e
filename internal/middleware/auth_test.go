package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/session"
)

type fixedSession struct {
	snap session.Snapshot
}

func (f fixedSession) Snapshot() session.Snapshot { return f.snap }

func newRouter(source SessionSource, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	chain := append([]gin.HandlerFunc{RequireUser(source)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		user := c.MustGet("current_user").(models.Identity)
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID})
	})
	router.GET("/protected", chain...)
	return router
}

func do(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequireUserRedirectsAnonymousToLogin(t *testing.T) {
	router := newRouter(fixedSession{snap: session.Snapshot{}})

	w := do(router)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "login_required", body["error"])
	assert.Equal(t, "/login", body["redirect"])
	assert.Equal(t, "/geoshop", body["from"])
}

func TestRequireUserRefusesWhileSessionLoading(t *testing.T) {
	router := newRouter(fixedSession{snap: session.Snapshot{Loading: true}})

	w := do(router)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRequireUserPassesIdentityThrough(t *testing.T) {
	router := newRouter(fixedSession{snap: session.Snapshot{
		User: &models.Identity{ID: "u1", Email: "ops@geoshop.test"},
		Role: models.RoleUser,
	}})

	w := do(router)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1"}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	admin := fixedSession{snap: session.Snapshot{
		User: &models.Identity{ID: "a1"},
		Role: models.RoleAdmin,
	}}
	user := fixedSession{snap: session.Snapshot{
		User: &models.Identity{ID: "u1"},
		Role: models.RoleUser,
	}}

	assert.Equal(t, http.StatusOK, do(newRouter(admin, RequireRoles(models.RoleAdmin))).Code)
	assert.Equal(t, http.StatusForbidden, do(newRouter(user, RequireRoles(models.RoleAdmin))).Code)
}
