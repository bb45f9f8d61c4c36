package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all dependencies up", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/health", NewHealthHandler(map[string]HealthCheck{"database": ok}).Health)

		w, resp := serve(engine, http.MethodGet, "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, map[string]any{"database": "ok"}, data["details"])
	})

	t.Run("dependency down", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/health", NewHealthHandler(map[string]HealthCheck{"database": ok, "redis": down}).Health)

		w, resp := serve(engine, http.MethodGet, "/health")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "degraded", data["status"])
		details := data["details"].(map[string]any)
		assert.Equal(t, "connection refused", details["redis"])
		assert.Equal(t, "ok", details["database"])
	})
}
