package router

import (
	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/handler"
)

func MarketRouter(rg *gin.RouterGroup, h *handler.MarketHandler) {
	rg.POST("", h.Conduct)
	rg.GET("/:emphasis", h.Latest)
}
