package http

import (
	"net/http"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
	"srtalert/internal/infrastructure/monitoring"
	apperrors "srtalert/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusHandler serves the read-only monitoring endpoints
type StatusHandler struct {
	provider ports.StatusProvider
	health   *monitoring.HealthChecker
	gatherer prometheus.Gatherer
}

func NewStatusHandler(
	provider ports.StatusProvider,
	health *monitoring.HealthChecker,
	gatherer prometheus.Gatherer,
) *StatusHandler {
	return &StatusHandler{
		provider: provider,
		health:   health,
		gatherer: gatherer,
	}
}

func (h *StatusHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/status", h.Status)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

func (h *StatusHandler) Health(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// Ready answers 200 once both the stats endpoint and OBS are connected
func (h *StatusHandler) Ready(c *gin.Context) {
	if h.provider.Ready() {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	st := h.provider.Status()
	target := domain.TargetStats
	if !st.OBS.Connected {
		target = domain.TargetOBS
	}
	c.Error(apperrors.NewTransientError(target, domain.ErrNotConnected))
}

func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.Status())
}
