package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCORSRouter(cfg CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/api/v1/invoices", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestCORSWithConfig(t *testing.T) {
	cfg := CORSConfigFromHTTP(config.HTTPConfig{
		CORSAllowOrigins: []string{"http://localhost:3000"},
		CORSAllowMethods: []string{"GET", "POST"},
		CORSAllowHeaders: []string{"Content-Type", "X-Request-ID"},
	})

	t.Run("allows listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		newCORSRouter(cfg).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("ignores unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		newCORSRouter(cfg).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("answers preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoices", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		newCORSRouter(cfg).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty origin list blocks cross-origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoices", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		newCORSRouter(CORSConfigFromHTTP(config.HTTPConfig{})).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard never sends credentials", func(t *testing.T) {
		wild := CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
		req.Header.Set("Origin", "http://anything.example")
		w := httptest.NewRecorder()
		newCORSRouter(wild).ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	t.Run("keeps caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("generates uuid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))
	router.GET("/", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
