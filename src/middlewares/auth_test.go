package middlewares

import (
	"eventbooking/src/models"
	"eventbooking/src/repositories/repotest"
	"eventbooking/src/types"
	"eventbooking/src/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func setupRouter(store *repotest.MemStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecureHeaders)
	authorized := r.Group("/", Authenticate(store.Users()))
	authorized.GET("/me", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"id": ctx.GetUint("id"), "email": ctx.GetString("email")})
	})
	authorized.GET("/admin", RequireAdmin, func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func request(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-secret")
	store := repotest.NewMemStore()
	user := store.SeedUser(models.User{FirstName: "Ann", Email: "ann@example.com", Role: types.ROLE_USER})
	r := setupRouter(store)

	token, err := utils.GenerateJWT(user.ID, user.Role, time.Now())
	require.NoError(t, err)

	w := request(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(user.ID), gjson.Get(w.Body.String(), "id").Int())
	assert.Equal(t, "ann@example.com", gjson.Get(w.Body.String(), "email").String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
}

func TestAuthenticateRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-secret")
	store := repotest.NewMemStore()
	r := setupRouter(store)

	w := request(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token, authorization denied", gjson.Get(w.Body.String(), "message").String())

	w = request(r, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token is not valid", gjson.Get(w.Body.String(), "message").String())

	expired, err := utils.GenerateJWT(1, types.ROLE_USER, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	w = request(r, "/me", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// valid token for a user that no longer exists
	ghost, err := utils.GenerateJWT(42, types.ROLE_USER, time.Now())
	require.NoError(t, err)
	w = request(r, "/me", ghost)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", gjson.Get(w.Body.String(), "message").String())
}

func TestRequireAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-secret")
	store := repotest.NewMemStore()
	user := store.SeedUser(models.User{FirstName: "Ann", Email: "ann@example.com", Role: types.ROLE_USER})
	admin := store.SeedUser(models.User{FirstName: "Root", Email: "root@example.com", Role: types.ROLE_ADMIN})
	r := setupRouter(store)

	userToken, _ := utils.GenerateJWT(user.ID, user.Role, time.Now())
	w := request(r, "/admin", userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", gjson.Get(w.Body.String(), "message").String())

	// the role is read from the stored user, not from the token
	forged, _ := utils.GenerateJWT(user.ID, types.ROLE_ADMIN, time.Now())
	w = request(r, "/admin", forged)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, _ := utils.GenerateJWT(admin.ID, admin.Role, time.Now())
	w = request(r, "/admin", adminToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
