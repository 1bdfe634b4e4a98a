// Package server exposes the operational HTTP surface: a manual run
// trigger, health, and metrics. It is deliberately not a query API over the
// catalog; downstream tooling reads the snapshot file.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventcatalog/internal/logger"
	"eventcatalog/internal/pipeline"
	apperrors "eventcatalog/pkg/errors"
	"eventcatalog/pkg/health"
)

type Handler struct {
	orchestrator *pipeline.Orchestrator
	health       *health.CheckerRegistry
	logger       logger.Logger
}

func NewHandler(orchestrator *pipeline.Orchestrator, healthRegistry *health.CheckerRegistry, log logger.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		health:       healthRegistry,
		logger:       log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/run", h.TriggerRun)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// TriggerRun starts a pipeline run synchronously. A run already in flight
// yields 409: triggers are discarded, not queued.
func (h *Handler) TriggerRun(c *gin.Context) {
	report, err := h.orchestrator.Run(c.Request.Context())
	if err != nil {
		if apperrors.IsRunInFlight(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":      "a run is already in progress",
				"error_code": apperrors.ErrRunInFlight.Code,
			})
			return
		}

		h.logger.ErrorwCtx(c.Request.Context(), "Triggered run failed",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"report": report,
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) Health(c *gin.Context) {
	result := h.health.Check(c.Request.Context())

	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}

// New builds the gin engine with routes registered.
func New(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)
	return router
}
