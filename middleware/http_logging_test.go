package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/na4oman/samsung-shop/middleware"
	awspkg "github.com/na4oman/samsung-shop/pkg/aws"
	"github.com/na4oman/samsung-shop/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		assert.Equal(t, "req-42", logger.RequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

type fakeHTTPMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	dims   map[string]string
}

func (f *fakeHTTPMetrics) IsEnabled() bool { return true }

func (f *fakeHTTPMetrics) RecordCount(_ context.Context, name string, dims map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name]++
	f.dims = dims
	return nil
}

func (f *fakeHTTPMetrics) RecordLatency(_ context.Context, name string, _ time.Duration, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name]++
	return nil
}

func (f *fakeHTTPMetrics) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[name]
}

func TestMetricsMiddleware(t *testing.T) {
	m := &fakeHTTPMetrics{counts: map[string]int{}}
	r := gin.New()
	r.Use(middleware.MetricsMiddleware(m, "catalog"))
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/p-1", nil))

	assert.Eventually(t, func() bool { return m.count(awspkg.MetricHTTP4xx) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, m.count(awspkg.MetricHTTPRequests))
	assert.Equal(t, 1, m.count(awspkg.MetricHTTPLatency))
	assert.Equal(t, 0, m.count(awspkg.MetricHTTP5xx))

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, "/products/:id", m.dims["Path"])
	assert.Equal(t, "4xx", m.dims["Status"])
}
