package router

import (
	"github.com/gin-gonic/gin"

	"cemas.ai/backend/internal/http/handler"
)

func SchemaRouter(rg *gin.RouterGroup, h *handler.SchemaHandler) {
	rg.GET("", h.List)
	rg.GET("/:name", h.Get)
}
