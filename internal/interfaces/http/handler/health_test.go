package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(h *HealthHandler, path string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler("pos-engine", "1.2.0", nil)

	w := serveHealth(h, "/health")

	requireStatus(t, w, http.StatusOK)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Data.Status)
	assert.Equal(t, "pos-engine", resp.Data.Name)
	assert.Equal(t, "1.2.0", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
}

func TestHealthHandler_Ready(t *testing.T) {
	healthy := func(context.Context) error { return nil }

	t.Run("all checks pass", func(t *testing.T) {
		h := NewHealthHandler("pos-engine", "dev", map[string]ReadinessCheck{
			"database": healthy,
			"cache":    healthy,
		})

		w := serveHealth(h, "/ready")

		requireStatus(t, w, http.StatusOK)
		resp := decode[ReadyResponse](t, w)
		assert.Equal(t, "ready", resp.Data.Status)
		assert.Equal(t, map[string]string{"database": "ok", "cache": "ok"}, resp.Data.Checks)
	})

	t.Run("a failing check answers 503", func(t *testing.T) {
		h := NewHealthHandler("pos-engine", "dev", map[string]ReadinessCheck{
			"database": func(context.Context) error { return errors.New("connection refused") },
			"cache":    healthy,
		})

		w := serveHealth(h, "/ready")

		requireStatus(t, w, http.StatusServiceUnavailable)
		resp := decode[ReadyResponse](t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "NOT_READY", resp.Error.Code)
		assert.Equal(t, "connection refused", resp.Data.Checks["database"])
		assert.Equal(t, "ok", resp.Data.Checks["cache"])
	})

	t.Run("checks see a deadline", func(t *testing.T) {
		h := NewHealthHandler("pos-engine", "dev", map[string]ReadinessCheck{
			"database": func(ctx context.Context) error {
				if _, ok := ctx.Deadline(); !ok {
					return errors.New("no deadline")
				}
				return nil
			},
		})

		requireStatus(t, serveHealth(h, "/ready"), http.StatusOK)
	})
}
