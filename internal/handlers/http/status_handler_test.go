package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/infrastructure/middleware"
	"srtalert/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	status domain.MonitorStatus
}

func (f *fakeProvider) Status() domain.MonitorStatus { return f.status }

func (f *fakeProvider) Ready() bool {
	return f.status.OBS.Connected && f.status.Stats.Connected
}

func setupRouter(t *testing.T, provider *fakeProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	collector := monitoring.NewPrometheusCollector(reg)
	collector.IncWarningRaised()

	health := monitoring.NewHealthChecker()
	health.AddConnectionChecks(provider, time.Second)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zaptest.NewLogger(t).Sugar()))
	NewStatusHandler(provider, health, reg).SetupRoutes(router)
	return router
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func connectedProvider() *fakeProvider {
	return &fakeProvider{status: domain.MonitorStatus{
		Publisher:    "live/feed",
		GracePhase:   "steady",
		WarningPhase: "clear",
		OBS:          domain.ConnectionStatus{Connected: true},
		OBSSession:   2,
		Stats:        domain.ConnectionStatus{Connected: true},
	}}
}

func TestStatusHandler_Status(t *testing.T) {
	router := setupRouter(t, connectedProvider())

	w := serve(router, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.MonitorStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "live/feed", got.Publisher)
	assert.Equal(t, "steady", got.GracePhase)
	assert.Equal(t, uint64(2), got.OBSSession)
	assert.True(t, got.OBS.Connected)
}

func TestStatusHandler_Ready(t *testing.T) {
	provider := connectedProvider()
	router := setupRouter(t, provider)

	assert.Equal(t, http.StatusOK, serve(router, "/ready").Code)

	provider.status.OBS = domain.ConnectionStatus{Connected: false, RetryCount: 2}
	w := serve(router, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TRANSIENT_NETWORK", body["error"])
	assert.Equal(t, "obs unavailable", body["message"])
}

func TestStatusHandler_Health(t *testing.T) {
	provider := connectedProvider()
	router := setupRouter(t, provider)

	assert.Equal(t, http.StatusOK, serve(router, "/health").Code)

	provider.status.Stats.Connected = false
	w := serve(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "stats endpoint unreachable")
}

func TestStatusHandler_Metrics(t *testing.T) {
	router := setupRouter(t, connectedProvider())

	w := serve(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "srtalert_warnings_raised_total 1"))
}
