package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ready(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"up"`)
}

func TestReadiness_AllUp(t *testing.T) {
	h := NewHandler()
	h.Register("redis", func(context.Context) error { return nil })
	h.RegisterNonCritical("marketplace_api", func(context.Context) error { return nil })

	code, resp := ready(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestReadiness_CriticalDown(t *testing.T) {
	h := NewHandler()
	h.Register("redis", func(context.Context) error { return errors.New("connection refused") })
	h.RegisterNonCritical("marketplace_api", func(context.Context) error { return nil })

	code, resp := ready(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
	assert.True(t, resp.Checks["redis"].Critical)
}

func TestReadiness_NonCriticalDownDegrades(t *testing.T) {
	h := NewHandler()
	h.Register("redis", func(context.Context) error { return nil })
	h.RegisterNonCritical("marketplace_api", func(context.Context) error { return errors.New("timeout") })

	code, resp := ready(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDown, resp.Checks["marketplace_api"].Status)
	assert.False(t, resp.Checks["marketplace_api"].Critical)
}
