package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instrumentedRouter mimics the facility routes behind HTTPMetricsMiddleware.
func instrumentedRouter(t *testing.T, namespace string) (*gin.Engine, *Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider(namespace)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), namespace))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	router.POST("/new", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/key", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/v1/keys/:lookup_key", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, provider
}

func send(router *gin.Engine, method, path string) {
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func TestHTTPMetricsMiddleware_Output(t *testing.T) {
	router, provider := instrumentedRouter(t, "http_test")

	for range 3 {
		send(router, http.MethodPost, "/new")
	}
	send(router, http.MethodPost, "/key")
	send(router, http.MethodGet, "/v1/keys/"+strings.Repeat("a", 64))
	send(router, http.MethodGet, "/v1/keys/"+strings.Repeat("b", 64))
	send(router, http.MethodGet, "/health")
	send(router, http.MethodGet, "/ready")
	send(router, http.MethodGet, "/nowhere")

	output := scrape(t, provider)

	assert.Regexp(t, `http_test_http_requests_total\{[^}]*path="/new"[^}]*status_code="200"[^}]*\} 3`, output)
	assert.Regexp(t, `http_test_http_requests_total\{[^}]*path="/key"[^}]*status_code="404"[^}]*\} 1`, output)
	assert.Regexp(t, `http_test_http_requests_total\{[^}]*path="/v1/keys/:lookup_key"[^}]*\} 2`, output,
		"lookup keys collapse into the route pattern")
	assert.Regexp(t, `http_test_http_requests_total\{[^}]*path="unknown"[^}]*status_code="404"[^}]*\} 1`, output)
	assert.Regexp(t, `http_test_http_request_duration_seconds_count\{[^}]*path="/key"[^}]*\} 1`, output)
	assert.Regexp(t, `http_test_http_requests_in_flight[a-z_]*(\{[^}]*\})? 0`, output)

	assert.NotContains(t, output, strings.Repeat("a", 64))
	assert.NotContains(t, output, `path="/health"`)
	assert.NotContains(t, output, `path="/ready"`)
}

func TestHTTPMetricsMiddleware_PassesResponsesThrough(t *testing.T) {
	router, _ := instrumentedRouter(t, "passthrough")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/key", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/v1/keys/:lookup_key", sanitizePath("/v1/keys/:lookup_key"))
	assert.Equal(t, "/", sanitizePath("/"))
	assert.Equal(t, "unknown", sanitizePath(""))
}
