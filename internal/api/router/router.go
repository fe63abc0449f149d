package router

import (
	"github.com/gin-gonic/gin"

	"github.com/talentview/transcription-worker/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	webhookHandler := handler.NewWebhookHandler(deps)

	r.GET("/", webhookHandler.Root)
	r.GET("/health", webhookHandler.Health)

	// Trigger intake
	r.POST("/webhook", webhookHandler.Webhook)
	r.POST("/store-webhook", webhookHandler.StoreWebhook)

	return r
}
