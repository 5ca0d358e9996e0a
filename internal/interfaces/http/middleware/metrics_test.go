package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func newMetricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/api/v1/invoices/:id", func(c *gin.Context) {
		if c.Param("id") == "404" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/api/v1/invoices", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 1})
	})
	router.GET("/api/v1/invoices/:id/pdf", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/pdf", []byte(strings.Repeat("x", 2048)))
	})
	return router, reader
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func attrValue(dp metricdata.DataPoint[int64], key string) string {
	for _, attr := range dp.Attributes.ToSlice() {
		if string(attr.Key) == key {
			return attr.Value.Emit()
		}
	}
	return ""
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
}

func TestHTTPMetrics_NilMeterProvider(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
}

func TestHTTPMetricsWithMeter_Disabled(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), false))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/health", "")

	assert.Nil(t, findMetricByName(collectMetrics(t, reader), "http_server_request_total"))
}

func TestHTTPMetricsWithMeter_RequestCounterUsesRoutePattern(t *testing.T) {
	router, reader := newMetricsRouter(t)

	for _, id := range []string{"1", "2", "3"} {
		require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/invoices/"+id, "").Code)
	}

	metric := findMetricByName(collectMetrics(t, reader), "http_server_request_total")
	require.NotNil(t, metric)
	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	dp := sum.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)
	assert.Equal(t, "/api/v1/invoices/:id", attrValue(dp, "http.route"))
	assert.Equal(t, "GET", attrValue(dp, "http.method"))
	assert.Equal(t, "2xx", attrValue(dp, "http.status_class"))
}

func TestHTTPMetricsWithMeter_StatusCodesSplitDataPoints(t *testing.T) {
	router, reader := newMetricsRouter(t)

	serve(router, http.MethodGet, "/api/v1/invoices/1", "")
	serve(router, http.MethodGet, "/api/v1/invoices/404", "")
	serve(router, http.MethodPost, "/api/v1/invoices", `{"product":"x"}`)

	metric := findMetricByName(collectMetrics(t, reader), "http_server_request_total")
	require.NotNil(t, metric)
	sum := metric.Data.(metricdata.Sum[int64])
	assert.Len(t, sum.DataPoints, 3)

	classes := map[string]int64{}
	for _, dp := range sum.DataPoints {
		classes[attrValue(dp, "http.status_class")] += dp.Value
	}
	assert.Equal(t, int64(2), classes["2xx"])
	assert.Equal(t, int64(1), classes["4xx"])
}

func TestHTTPMetricsWithMeter_Histograms(t *testing.T) {
	router, reader := newMetricsRouter(t)

	serve(router, http.MethodPost, "/api/v1/invoices", `{"product":"Consulting"}`)
	serve(router, http.MethodGet, "/api/v1/invoices/7/pdf", "")

	rm := collectMetrics(t, reader)

	duration := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)

	reqSize := findMetricByName(rm, "http_server_request_size_bytes")
	require.NotNil(t, reqSize)
	reqHist := reqSize.Data.(metricdata.Histogram[float64])
	require.Len(t, reqHist.DataPoints, 1)
	assert.Equal(t, float64(len(`{"product":"Consulting"}`)), reqHist.DataPoints[0].Sum)

	respSize := findMetricByName(rm, "http_server_response_size_bytes")
	require.NotNil(t, respSize)
	var pdfBytes float64
	for _, dp := range respSize.Data.(metricdata.Histogram[float64]).DataPoints {
		pdfBytes += dp.Sum
	}
	assert.GreaterOrEqual(t, pdfBytes, float64(2048))
}

func TestHTTPMetricsWithMeter_ActiveRequestsReturnToZero(t *testing.T) {
	router, reader := newMetricsRouter(t)

	serve(router, http.MethodGet, "/api/v1/invoices/1", "")

	metric := findMetricByName(collectMetrics(t, reader), "http_server_active_requests")
	require.NotNil(t, metric)
	sum := metric.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Zero(t, sum.DataPoints[0].Value)
}

func TestGetRoutePattern_Unmatched(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.String(http.StatusNotFound, getRoutePattern(c))
		c.Abort()
	})

	w := serve(router, http.MethodGet, "/nonexistent", "")
	assert.Equal(t, "unknown", w.Body.String())
}

func TestHTTPMetricsStatusGroup(t *testing.T) {
	testCases := []struct {
		statusCode int
		expected   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{409, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
		{100, "other"},
		{0, "other"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, HTTPMetricsStatusGroup(tc.statusCode), "status %d", tc.statusCode)
	}
}
