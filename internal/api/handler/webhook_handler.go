package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentview/transcription-worker/internal/api/dto"
	"github.com/talentview/transcription-worker/internal/transcription/domain"
)

// triggerMessage is the payload published to the worker queue
type triggerMessage struct {
	ResponseID string `json:"response_id"`
}

// Webhook handles POST /webhook
// Accepts a response id and queues it for background transcription.
func (h *WebhookHandler) Webhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid webhook request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "response_id is required",
		})
		return
	}

	h.logger.Info("Webhook received",
		slog.String("response_id", req.ResponseID),
	)

	if !h.publish(c, req.ResponseID) {
		return
	}

	c.JSON(http.StatusAccepted, dto.WebhookAck{
		Status:     "accepted",
		ResponseID: req.ResponseID,
		Message:    "Video queued for processing",
	})
}

// StoreWebhook handles POST /store-webhook
// Accepts native change events from the record store and queues newly
// inserted video responses. Non-matching events are acknowledged as
// ignored so the store does not retry them.
func (h *WebhookHandler) StoreWebhook(c *gin.Context) {
	var event dto.StoreEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.Error("Invalid store event", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid store event body",
		})
		return
	}

	h.logger.Info("Store webhook received",
		slog.String("type", event.Type),
		slog.String("table", event.Table),
	)

	if event.Type != "INSERT" || event.Table != "responses" {
		c.JSON(http.StatusOK, dto.IgnoredResponse{
			Status: "ignored",
			Reason: "Not an INSERT on responses table",
		})
		return
	}

	data, _ := event.Record["data"].(map[string]any)
	if kind, _ := data[domain.DataKeyType].(string); kind != domain.KindVideo {
		c.JSON(http.StatusOK, dto.IgnoredResponse{
			Status: "ignored",
			Reason: "Not a video response",
		})
		return
	}

	if url, _ := data[domain.DataKeyVideoURL].(string); url == "" {
		c.JSON(http.StatusOK, dto.IgnoredResponse{
			Status: "ignored",
			Reason: "No video_url found",
		})
		return
	}

	responseID, _ := event.Record["id"].(string)
	if responseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No response id in record",
		})
		return
	}

	if !h.publish(c, responseID) {
		return
	}

	c.JSON(http.StatusAccepted, dto.WebhookAck{
		Status:     "accepted",
		ResponseID: responseID,
		Message:    "Video queued for processing",
	})
}

// publish dispatches one trigger to the worker queue; on failure it writes
// the error response and returns false.
func (h *WebhookHandler) publish(c *gin.Context, responseID string) bool {
	body, err := json.Marshal(triggerMessage{ResponseID: responseID})
	if err != nil {
		h.logger.Error("Failed to encode trigger message",
			slog.String("response_id", responseID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue video for processing",
		})
		return false
	}

	if err := h.publisher.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Error("Failed to publish trigger message",
			slog.String("response_id", responseID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue video for processing",
		})
		return false
	}

	return true
}
