package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/nsca-agent/internal/domain"
)

type stubAgent struct {
	err    error
	status domain.AgentStatus
}

func (s stubAgent) HealthCheck(context.Context) error { return s.err }

func (s stubAgent) GetStatus() domain.AgentStatus { return s.status }

func serve(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	agent := stubAgent{status: domain.AgentStatus{
		AgentID:     "agent-1",
		Running:     true,
		NSCAAddress: "localhost:5667",
		Encryption:  "3des",
		Submitted:   5,
	}}
	router := NewRouter(
		NewHealthController(agent, "agent-1", "test"),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		slog.New(slog.DiscardHandler),
	)

	rec := serve(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	var health domain.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, domain.HealthStatusHealthy, health.Status)
	assert.Equal(t, "agent-1", health.AgentID)

	rec = serve(t, router, "/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	var status domain.AgentStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, uint64(5), status.Submitted)
	assert.Equal(t, "3des", status.Encryption)

	assert.Equal(t, http.StatusOK, serve(t, router, "/ready").Code)

	rec = serve(t, router, "/info")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nsca_sender")

	rec = serve(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_total 1")
}

func TestRouterUnhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := NewRouter(
		NewHealthController(stubAgent{err: errors.New("service is not running")}, "agent-1", "test"),
		nil,
		slog.New(slog.DiscardHandler),
	)

	rec := serve(t, router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "service is not running")

	assert.Equal(t, http.StatusServiceUnavailable, serve(t, router, "/ready").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, router, "/metrics").Code)
}
