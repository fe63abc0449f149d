package handler

import (
	"context"
	"log/slog"
)

// TriggerPublisher dispatches a transcription trigger to the worker service
type TriggerPublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// StoreHealth reports record store connectivity
type StoreHealth interface {
	HealthCheck(ctx context.Context) error
}

// BrokerHealth reports message broker connectivity
type BrokerHealth interface {
	IsConnected() bool
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger                  *slog.Logger
	Publisher               TriggerPublisher
	Store                   StoreHealth
	Broker                  BrokerHealth
	ServiceName             string
	ServiceVersion          string
	TranscriptionConfigured bool
}

// WebhookHandler handles transcription trigger HTTP requests
type WebhookHandler struct {
	logger                  *slog.Logger
	publisher               TriggerPublisher
	store                   StoreHealth
	broker                  BrokerHealth
	serviceName             string
	serviceVersion          string
	transcriptionConfigured bool
}

// NewWebhookHandler creates a new WebhookHandler instance
func NewWebhookHandler(deps *Dependencies) *WebhookHandler {
	return &WebhookHandler{
		logger:                  deps.Logger,
		publisher:               deps.Publisher,
		store:                   deps.Store,
		broker:                  deps.Broker,
		serviceName:             deps.ServiceName,
		serviceVersion:          deps.ServiceVersion,
		transcriptionConfigured: deps.TranscriptionConfigured,
	}
}
