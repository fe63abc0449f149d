package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root handles GET /
func (h *WebhookHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.serviceName,
		"version": h.serviceVersion,
	})
}

// Health handles GET /health
// Reports store and broker connectivity plus whether the transcription
// provider is configured. Read-only; touches nothing in the pipeline.
func (h *WebhookHandler) Health(c *gin.Context) {
	databaseStatus := "connected"
	healthy := true
	if err := h.store.HealthCheck(c.Request.Context()); err != nil {
		databaseStatus = "disconnected"
		healthy = false
	}

	brokerStatus := "connected"
	if !h.broker.IsConnected() {
		brokerStatus = "disconnected"
		healthy = false
	}

	transcriptionStatus := "configured"
	if !h.transcriptionConfigured {
		transcriptionStatus = "not configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status": status,
		"services": gin.H{
			"database":      databaseStatus,
			"rabbitmq":      brokerStatus,
			"transcription": transcriptionStatus,
		},
	})
}
