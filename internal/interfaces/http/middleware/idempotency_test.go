package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinicstock/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idempotentRouter(t *testing.T, status *int) (*gin.Engine, *cache.InMemoryIdempotencyStore, *int) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := gin.New()
	router.Use(Identity(IdentityConfig{}))
	router.POST("/requests/inventory", IdempotencyKey(store, time.Hour), func(c *gin.Context) {
		calls++
		c.Status(*status)
	})
	return router, store, &calls
}

func postWithKey(router *gin.Engine, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/requests/inventory", strings.NewReader("{}"))
	req.Header.Set(UserIDHeader, user)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyKey_Replay(t *testing.T) {
	status := http.StatusCreated
	router, _, calls := idempotentRouter(t, &status)
	user := uuid.NewString()

	assert.Equal(t, http.StatusCreated, postWithKey(router, user, "k-1").Code)

	replay := postWithKey(router, user, "k-1")
	assert.Equal(t, http.StatusConflict, replay.Code)
	assert.Contains(t, replay.Body.String(), "DUPLICATE_REQUEST")
	assert.Equal(t, 1, *calls)

	assert.Equal(t, http.StatusCreated, postWithKey(router, uuid.NewString(), "k-1").Code, "keys are scoped per user")
	assert.Equal(t, http.StatusCreated, postWithKey(router, user, "").Code)
	assert.Equal(t, http.StatusCreated, postWithKey(router, user, "").Code)
	assert.Equal(t, 4, *calls)
}

func TestIdempotencyKey_FailureReleasesKey(t *testing.T) {
	status := http.StatusUnprocessableEntity
	router, store, calls := idempotentRouter(t, &status)
	user := uuid.NewString()

	assert.Equal(t, http.StatusUnprocessableEntity, postWithKey(router, user, "k-2").Code)
	assert.Equal(t, 0, store.Len())

	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, postWithKey(router, user, "k-2").Code)
	assert.Equal(t, 2, *calls)
}

func TestIdempotencyKey_TooLong(t *testing.T) {
	status := http.StatusCreated
	router, _, calls := idempotentRouter(t, &status)

	w := postWithKey(router, uuid.NewString(), strings.Repeat("x", maxIdempotencyKeyLength+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, *calls)
}

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Release(context.Context, string) error            { return nil }
func (failingStore) Close() error                                     { return nil }

func TestIdempotencyKey_StoreUnavailable(t *testing.T) {
	router := gin.New()
	router.POST("/requests/inventory", IdempotencyKey(failingStore{}, time.Hour), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := postWithKey(router, uuid.NewString(), "k-3")
	require.Equal(t, http.StatusCreated, w.Code)
}
