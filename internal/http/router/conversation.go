package router

import (
	"github.com/gin-gonic/gin"

	"cemas.ai/backend/internal/http/handler"
)

func ConversationRouter(
	rg *gin.RouterGroup,
	conversations *handler.ConversationHandler,
	messages *handler.MessageHandler,
	events *handler.EventsHandler,
) {
	rg.POST("", conversations.Create)
	rg.GET("", conversations.List)
	rg.GET("/:id", conversations.Get)
	rg.PUT("/:id", conversations.Update)
	rg.DELETE("/:id", conversations.Delete)

	rg.POST("/:id/messages", messages.Send)
	rg.GET("/:id/messages", messages.List)
	rg.POST("/:id/insights", messages.Insights)

	rg.GET("/:id/events", events.Stream)
}
