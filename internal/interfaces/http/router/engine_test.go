package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandlers() Handlers {
	return Handlers{
		Person:   handler.NewPersonHandler(nil),
		Invoice:  handler.NewInvoiceHandler(nil),
		Document: handler.NewDocumentHandler(nil),
		System:   handler.NewSystemHandler("invoicing-backend", "test"),
	}
}

func testEngineConfig() EngineConfig {
	return EngineConfig{
		HTTP: config.HTTPConfig{
			MaxBodySize:      1 << 20,
			WriteTimeout:     5 * time.Second,
			CORSAllowOrigins: []string{"http://localhost:3000"},
			CORSAllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			CORSAllowHeaders: []string{"Content-Type"},
		},
	}
}

func TestNewEngine_RegistersInvoicingRoutes(t *testing.T) {
	engine := NewEngine(testEngineConfig(), testHandlers())

	registered := make(map[string]bool)
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /health",
		"GET /swagger/*any",
		"POST /api/v1/persons",
		"GET /api/v1/persons",
		"GET /api/v1/persons/statistics",
		"GET /api/v1/persons/lookup",
		"GET /api/v1/persons/lookup/:id",
		"GET /api/v1/persons/invoice-related",
		"GET /api/v1/persons/:id",
		"PUT /api/v1/persons/:id",
		"DELETE /api/v1/persons/:id",
		"POST /api/v1/invoices",
		"GET /api/v1/invoices/summary",
		"GET /api/v1/invoices/statistics",
		"GET /api/v1/invoices/identification/:ic/sales",
		"GET /api/v1/invoices/identification/:ic/purchases",
		"GET /api/v1/invoices/:id",
		"PUT /api/v1/invoices/:id",
		"DELETE /api/v1/invoices/:id",
		"GET /api/v1/invoices/:id/document",
		"GET /api/v1/invoices/:id/pdf",
		"POST /api/v1/invoices/:id/archive",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

func TestNewEngine_WithoutDocuments(t *testing.T) {
	h := testHandlers()
	h.Document = nil
	engine := NewEngine(testEngineConfig(), h)

	for _, r := range engine.Routes() {
		assert.NotContains(t, r.Path, "/pdf")
	}
}

func TestNewEngine_HealthAndRequestID(t *testing.T) {
	engine := NewEngine(testEngineConfig(), testHandlers())

	w := serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
}

func TestNewEngine_SecurityHeadersOnAPI(t *testing.T) {
	engine := NewEngine(testEngineConfig(), testHandlers())

	w := serve(engine, http.MethodGet, "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNewEngine_SwaggerDisabled(t *testing.T) {
	engine := NewEngine(testEngineConfig(), testHandlers())

	w := serve(engine, http.MethodGet, "/swagger/index.html")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewEngine_CORSPreflight(t *testing.T) {
	engine := NewEngine(testEngineConfig(), testHandlers())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/persons", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewEngine_RateLimit(t *testing.T) {
	cfg := testEngineConfig()
	cfg.HTTP.RateLimitEnabled = true
	cfg.HTTP.RateLimitRequests = 1
	cfg.HTTP.RateLimitWindow = time.Minute
	cfg.RateLimiter = middleware.NewRateLimiter(1, time.Minute)
	engine := NewEngine(cfg, testHandlers())

	require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
}

func TestNewEngine_RecoversPanics(t *testing.T) {
	engine := NewEngine(testEngineConfig(), Handlers{})
	engine.GET("/boom", func(*gin.Context) { panic("boom") })

	w := serve(engine, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
