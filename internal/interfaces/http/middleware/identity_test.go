package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicstock/backend/internal/infrastructure/auth"
	"github.com/clinicstock/backend/internal/infrastructure/config"
	"github.com/clinicstock/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityRouter(cfg IdentityConfig) *gin.Engine {
	router := gin.New()
	router.Use(Identity(cfg))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": ActorID(c).String(),
			"actor":   logger.ActorID(c.Request.Context()),
		})
	})
	return router
}

func TestIdentity_Header(t *testing.T) {
	router := identityRouter(IdentityConfig{SkipPaths: []string{"/health"}})
	user := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(UserIDHeader, user.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"`+user.String()+`"`)
	assert.Contains(t, w.Body.String(), `"actor":"`+user.String()+`"`)

	for _, bad := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(UserIDHeader, bad)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", bad)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdentity_Token(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{Enabled: true, Secret: "test-secret-with-enough-length", Issuer: "clinicstock"})
	router := identityRouter(IdentityConfig{Validator: svc})
	user := uuid.New()

	token, err := svc.Sign(user, "nurse.kim", []string{"nurse"}, time.Hour)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		req.Header.Set(UserIDHeader, uuid.NewString())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.String(), "the token wins over the header")
	})

	t.Run("header ignored when tokens are required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(UserIDHeader, user.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := svc.Sign(user, "nurse.kim", nil, -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+expired)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})
}
