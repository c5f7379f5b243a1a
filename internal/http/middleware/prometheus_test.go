package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware_CountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/:slug", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for _, slug := range []string{"taberu-verb", "nomu-verb"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+slug, nil))
		require.NoError(t, err)
	}

	// Both detail pages share the route-pattern label.
	count := testutil.ToFloat64(m.requestCount.WithLabelValues(http.MethodGet, "/:slug", "200"))
	assert.Equal(t, float64(2), count)
}

func TestPrometheusMiddleware_ErrorStatusLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.ErrServiceUnavailable
	})

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)

	count := testutil.ToFloat64(m.requestCount.WithLabelValues(http.MethodGet, "/boom", "503"))
	assert.Equal(t, float64(1), count)
}

func TestPrometheusMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	count := testutil.ToFloat64(m.requestCount.WithLabelValues(http.MethodGet, "/metrics", "200"))
	assert.Equal(t, float64(0), count)
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
