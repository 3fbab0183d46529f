package router

import (
	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/handler"
)

func UserRouter(rg *gin.RouterGroup, h *handler.UserHandler) {
	rg.GET("/me", h.Me)
	rg.PATCH("/me", h.UpdateProfile)
	rg.DELETE("/me", h.Delete)
}
