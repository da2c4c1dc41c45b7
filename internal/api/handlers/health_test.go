package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	h := NewHealthChecker(nil, "v1", "abc")
	rec := serve(h.Healthz, request{method: http.MethodGet, target: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestReadyz(t *testing.T) {
	healthy := NewHealthChecker(pingFunc(func(context.Context) error { return nil }), "v1", "abc")
	rec := serve(healthy.Readyz, request{method: http.MethodGet, target: "/readyz"})
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewHealthChecker(pingFunc(func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	}), "v1", "abc")
	rec = serve(down.Readyz, request{method: http.MethodGet, target: "/readyz"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := decodeBody(t, rec)["checks"].(map[string]any)
	assert.Equal(t, "database connection refused", checks["database"].(map[string]any)["message"])
}
