package router

import (
	"github.com/gin-gonic/gin"

	"cemas.ai/backend/internal/http/handler"
)

// UserRouter expects rg to be guarded by the admin API key.
func UserRouter(rg *gin.RouterGroup, h *handler.UserHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
}
